// internal/member/service.go
package member

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the membership service.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Member, error)
	Authenticate(ctx context.Context, phone, password string) (*Member, error)
	GetMember(ctx context.Context, id uuid.UUID) (*Member, error)
	GetByPhone(ctx context.Context, phone string) (*Member, error)
	List(ctx context.Context) ([]*Member, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd *ProfileUpdate) error
	RecordSkippedMonth(ctx context.Context, id uuid.UUID) error
	ResetPassword(ctx context.Context, phoneNumber, newPassword string) error
}
