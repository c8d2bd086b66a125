// internal/otp/service.go
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/time/rate"

	"stokvelhub/internal/notify"
	"stokvelhub/internal/phone"
)

// Service drives the password-reset code lifecycle.
type Service interface {
	Issue(ctx context.Context, phoneNumber string) (*Record, error)
	Verify(ctx context.Context, phoneNumber, code string) error
}

type service struct {
	store       Store
	dispatcher  *notify.Dispatcher
	rateLimiter *rate.Limiter
	now         func() time.Time
}

func NewService(store Store, dispatcher *notify.Dispatcher) Service {
	return &service{
		store:       store,
		dispatcher:  dispatcher,
		rateLimiter: rate.NewLimiter(rate.Every(10*time.Second), 3),
		now:         time.Now,
	}
}

// Issue generates a fresh numeric code for the phone, overwriting any
// outstanding one, and dispatches it out of band.
func (s *service) Issue(ctx context.Context, phoneNumber string) (*Record, error) {
	if !s.rateLimiter.Allow() {
		return nil, fmt.Errorf("rate limit exceeded")
	}

	normalized, err := phone.Normalize(phoneNumber)
	if err != nil {
		return nil, err
	}

	code, err := randomCode(CodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate reset code: %w", err)
	}

	now := s.now().UTC()
	rec := &Record{
		Phone:     normalized,
		Code:      code,
		ExpiresAt: now.Add(TTL),
		CreatedAt: now,
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(notify.Message{
		Kind:  notify.KindOTPIssued,
		Phone: normalized,
		Payload: map[string]string{
			"code":        code,
			"ttl_minutes": fmt.Sprintf("%d", int(TTL.Minutes())),
		},
	})
	return rec, nil
}

// Verify applies the state machine to the phone's outstanding record and
// persists the transition it dictates. Expired and exhausted records are
// deleted so a fresh Issue starts clean.
func (s *service) Verify(ctx context.Context, phoneNumber, code string) error {
	normalized, err := phone.Normalize(phoneNumber)
	if err != nil {
		return err
	}

	rec, err := s.store.Get(ctx, normalized)
	if err != nil {
		return err
	}

	switch Evaluate(rec, code, s.now().UTC()) {
	case OutcomeMatch:
		if err := s.store.MarkUsed(ctx, normalized, s.now().UTC()); err != nil {
			return err
		}
		return nil
	case OutcomeMismatch:
		if err := s.store.IncrementAttempts(ctx, normalized); err != nil {
			return err
		}
		return ErrMismatch
	case OutcomeExpired:
		if err := s.store.Delete(ctx, normalized); err != nil {
			return err
		}
		return ErrExpired
	case OutcomeExhausted:
		if err := s.store.Delete(ctx, normalized); err != nil {
			return err
		}
		return ErrExhausted
	default:
		return ErrCodeUsed
	}
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}
