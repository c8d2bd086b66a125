// internal/member/implementation.go
package member

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"stokvelhub/internal/audit"
	"stokvelhub/internal/config"
	"stokvelhub/internal/notify"
	"stokvelhub/internal/phone"
	"stokvelhub/internal/reference"
)

// service implements the Service interface.
type service struct {
	store       *Store
	refs        reference.Generator
	cfg         *config.Config
	auditLog    *audit.Log
	dispatcher  *notify.Dispatcher
	rateLimiter *rate.Limiter
}

// NewService creates a new membership service instance.
func NewService(store *Store, refs reference.Generator, cfg *config.Config, auditLog *audit.Log, dispatcher *notify.Dispatcher) Service {
	return &service{
		store:       store,
		refs:        refs,
		cfg:         cfg,
		auditLog:    auditLog,
		dispatcher:  dispatcher,
		rateLimiter: rate.NewLimiter(rate.Every(1*time.Minute), 5), // 5 registrations per minute
	}
}

// Register enrolls a new member with zeroed aggregates.
func (s *service) Register(ctx context.Context, input RegisterInput) (*Member, error) {
	if !s.rateLimiter.Allow() {
		return nil, fmt.Errorf("rate limit exceeded")
	}

	details, err := ParseIDNumber(input.IDNumber, s.cfg.IDCenturyCutoff)
	if err != nil {
		return nil, err
	}

	normalized, err := phone.Normalize(input.Phone)
	if err != nil {
		return nil, err
	}

	// Uniqueness pre-checks. The unique indexes close the remaining race.
	if _, err := s.store.GetByPhone(ctx, normalized); err == nil {
		return nil, ErrPhoneInUse
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if _, err := s.store.GetByIDNumber(ctx, input.IDNumber); err == nil {
		return nil, ErrIDNumberInUse
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	ref, err := s.refs.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate member reference: %w", err)
	}

	passwordHash, salt, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	m := &Member{
		ID:           uuid.New(),
		Reference:    ref,
		FullName:     input.FullName,
		Surname:      input.Surname,
		DateOfBirth:  details.DateOfBirth,
		IDNumber:     input.IDNumber,
		Gender:       details.Gender,
		Phone:        normalized,
		Email:        input.Email,
		Status:       StatusActive,
		TotalSavings: decimal.Zero,
		TotalFines:   decimal.Zero,
	}
	cred := &Credential{
		MemberID:     m.ID,
		PasswordHash: passwordHash,
		Salt:         salt,
	}

	if err := s.store.Insert(ctx, m, cred); err != nil {
		return nil, err
	}

	s.auditLog.Record(ctx, m.Reference, "member_registered", "member", m.ID.String(), map[string]interface{}{
		"reference": m.Reference,
		"phone":     m.Phone,
	})
	s.dispatcher.Dispatch(notify.Message{
		Kind:  notify.KindRegistrationConfirmed,
		Phone: m.Phone,
		Payload: map[string]string{
			"reference": m.Reference,
		},
	})

	return m, nil
}

// Authenticate verifies a member's credentials and returns the member if successful.
func (s *service) Authenticate(ctx context.Context, phoneNumber, password string) (*Member, error) {
	normalized, err := phone.Normalize(phoneNumber)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	m, err := s.store.GetByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	cred, err := s.store.GetCredential(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	ok, err := verifyPassword(password, cred.Salt, cred.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return m, nil
}

func (s *service) GetMember(ctx context.Context, id uuid.UUID) (*Member, error) {
	return s.store.GetByID(ctx, id)
}

func (s *service) GetByPhone(ctx context.Context, phoneNumber string) (*Member, error) {
	normalized, err := phone.Normalize(phoneNumber)
	if err != nil {
		return nil, err
	}
	return s.store.GetByPhone(ctx, normalized)
}

func (s *service) List(ctx context.Context) ([]*Member, error) {
	return s.store.List(ctx)
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, upd *ProfileUpdate) error {
	if upd.Phone != nil {
		normalized, err := phone.Normalize(*upd.Phone)
		if err != nil {
			return err
		}
		upd.Phone = &normalized
	}
	if err := s.store.UpdateProfile(ctx, id, upd); err != nil {
		return err
	}
	s.auditLog.Record(ctx, id.String(), "member_profile_updated", "member", id.String(), nil)
	return nil
}

func (s *service) RecordSkippedMonth(ctx context.Context, id uuid.UUID) error {
	if err := s.store.RecordSkippedMonth(ctx, id, s.cfg.MaxSkippedMonths); err != nil {
		return err
	}
	s.auditLog.Record(ctx, "system", "member_skipped_month", "member", id.String(), nil)
	return nil
}

// ResetPassword swaps a member's credential hash. The OTP flow calls this
// after a successful verification.
func (s *service) ResetPassword(ctx context.Context, phoneNumber, newPassword string) error {
	normalized, err := phone.Normalize(phoneNumber)
	if err != nil {
		return err
	}
	m, err := s.store.GetByPhone(ctx, normalized)
	if err != nil {
		return err
	}

	passwordHash, salt, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.store.UpdateCredential(ctx, m.ID, passwordHash, salt); err != nil {
		return err
	}

	s.auditLog.Record(ctx, m.Reference, "member_password_reset", "member", m.ID.String(), nil)
	return nil
}
