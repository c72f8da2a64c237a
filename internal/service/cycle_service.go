package service

import (
	"context"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/lifecycle"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/models"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/storage"
)

// CycleService exposes the lifecycle operations plus the cycle read paths.
// The business rules live in the lifecycle engine; this layer only shapes
// requests and responses.
type CycleService struct {
	store  storage.Store
	engine *lifecycle.Engine
}

// NewCycleService creates a new CycleService over the given store.
func NewCycleService(store storage.Store) *CycleService {
	return &CycleService{store: store, engine: lifecycle.New(store)}
}

// CreateCycleInput carries the fields of a cycle-creation request.
// RecipientID may be empty to accept the rotation suggestion.
type CreateCycleInput struct {
	RecipientID string `json:"recipient_id"`
	StartDate   int64  `json:"start_date"`
	EndDate     int64  `json:"end_date"`
}

// CreateCycle creates the group's next cycle.
func (s *CycleService) CreateCycle(ctx context.Context, callerID, groupID string, in CreateCycleInput) (*models.Cycle, error) {
	return s.engine.CreateCycle(ctx, callerID, groupID, in.RecipientID, in.StartDate, in.EndDate)
}

// CompleteCycle finishes an active cycle and promotes its successor.
func (s *CycleService) CompleteCycle(ctx context.Context, callerID, cycleID string) (*models.Cycle, error) {
	return s.engine.CompleteCycle(ctx, callerID, cycleID)
}

// MarkPayment flips one member's payment between pending and paid.
func (s *CycleService) MarkPayment(ctx context.Context, callerID, cycleID, memberID string, status models.PaymentStatus) (*models.Payment, error) {
	return s.engine.MarkPayment(ctx, callerID, cycleID, memberID, status)
}

// SendReminder emits a payment reminder to one pending member.
func (s *CycleService) SendReminder(ctx context.Context, callerID, cycleID, memberID string) (*models.Notification, error) {
	return s.engine.SendReminder(ctx, callerID, cycleID, memberID)
}

// SuggestNextRecipient returns the rotation's pick for the next cycle.
func (s *CycleService) SuggestNextRecipient(ctx context.Context, groupID string) (string, error) {
	return s.engine.SuggestNextRecipient(ctx, groupID)
}

// CycleDetail is a cycle together with its payments.
type CycleDetail struct {
	Cycle    *models.Cycle     `json:"cycle"`
	Payments []*models.Payment `json:"payments"`
}

// GetCycle retrieves a cycle with its payments.
func (s *CycleService) GetCycle(ctx context.Context, cycleID string) (*CycleDetail, error) {
	cycle, err := s.store.GetCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.ListPayments(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	return &CycleDetail{Cycle: cycle, Payments: payments}, nil
}

// ListCycles retrieves a group's cycles ordered by number.
func (s *CycleService) ListCycles(ctx context.Context, groupID string) ([]*models.Cycle, error) {
	return s.store.ListCycles(ctx, groupID)
}
