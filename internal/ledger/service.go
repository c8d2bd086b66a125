// internal/ledger/service.go
package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Engine is the ledger consistency engine: the atomic transitions that keep
// member aggregates, submission records and the aggregate cache in step.
type Engine interface {
	Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error)
	Approve(ctx context.Context, submissionID uuid.UUID, approvedBy string) error
	Reject(ctx context.Context, submissionID uuid.UUID, rejectedBy, reason string) error
	Recalculate(ctx context.Context, memberID uuid.UUID) (*RecalculatedStats, error)
	RecalculateAll(ctx context.Context) (int, error)
	Dashboard(ctx context.Context) (*DashboardStats, error)
	DashboardSlow(ctx context.Context) (*DashboardStats, error)
}
