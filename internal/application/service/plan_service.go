package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ren-perez/saldo-backend/internal/infrastructure/storage"
)

// PlanInput holds the caller-supplied fields of an income plan.
type PlanInput struct {
	Label          string
	ExpectedDate   time.Time
	ExpectedAmount float64
	Recurrence     string
}

// PlanService manages the income plan lifecycle. Matching a plan to a
// transaction lives in MatchService; this service covers CRUD and the
// planned/missed status transitions.
type PlanService struct {
	storage storage.Repository
	logger  *slog.Logger
}

// NewPlanService creates a new plan service.
func NewPlanService(store storage.Repository, logger *slog.Logger) *PlanService {
	return &PlanService{storage: store, logger: logger}
}

// CreatePlan persists a new planned income event.
func (s *PlanService) CreatePlan(userID string, input PlanInput) (*storage.IncomePlan, error) {
	if input.Label == "" {
		return nil, NewValidationError("label is required")
	}
	if input.ExpectedAmount <= 0 {
		return nil, NewValidationError("expected_amount must be positive, got %v", input.ExpectedAmount)
	}
	if input.ExpectedDate.IsZero() {
		return nil, NewValidationError("expected_date is required")
	}

	plan := &storage.IncomePlan{
		ID:             uuid.NewString(),
		UserID:         userID,
		Label:          input.Label,
		ExpectedDate:   input.ExpectedDate,
		ExpectedAmount: input.ExpectedAmount,
		Recurrence:     input.Recurrence,
		Status:         storage.PlanStatusPlanned,
		CreatedAt:      time.Now(),
	}

	if err := s.storage.CreatePlan(plan); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	s.logger.Info("plan created",
		"plan_id", plan.ID,
		"label", plan.Label,
		"expected_amount", plan.ExpectedAmount,
	)

	return plan, nil
}

// GetPlan retrieves a plan owned by the user.
func (s *PlanService) GetPlan(userID, planID string) (*storage.IncomePlan, error) {
	return s.getOwnedPlan(userID, planID)
}

// ListPlans returns the user's plans ordered by expected date.
func (s *PlanService) ListPlans(userID string) ([]*storage.IncomePlan, error) {
	return s.storage.ListPlans(userID)
}

// DeletePlan removes a plan. Its allocation records and their matches
// cascade away with it.
func (s *PlanService) DeletePlan(userID, planID string) error {
	if _, err := s.getOwnedPlan(userID, planID); err != nil {
		return err
	}

	if err := s.storage.DeletePlan(planID); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}

	s.logger.Info("plan deleted", "plan_id", planID)
	return nil
}

// MarkMissed transitions a planned income event to missed. Matched plans
// cannot be missed; unmatch first.
func (s *PlanService) MarkMissed(userID, planID string) (*storage.IncomePlan, error) {
	plan, err := s.getOwnedPlan(userID, planID)
	if err != nil {
		return nil, err
	}

	if plan.Status == storage.PlanStatusMatched {
		return nil, NewStateConflictError("plan %s is matched and cannot be marked missed", planID)
	}

	plan.Status = storage.PlanStatusMissed
	if err := s.storage.UpdatePlan(plan); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	s.logger.Info("plan marked missed", "plan_id", planID)
	return plan, nil
}

// RevertMissed moves a missed plan back to planned.
func (s *PlanService) RevertMissed(userID, planID string) (*storage.IncomePlan, error) {
	plan, err := s.getOwnedPlan(userID, planID)
	if err != nil {
		return nil, err
	}

	if plan.Status != storage.PlanStatusMissed {
		return nil, NewStateConflictError("plan %s is not missed", planID)
	}

	plan.Status = storage.PlanStatusPlanned
	if err := s.storage.UpdatePlan(plan); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	s.logger.Info("plan missed status reverted", "plan_id", planID)
	return plan, nil
}

func (s *PlanService) getOwnedPlan(userID, planID string) (*storage.IncomePlan, error) {
	plan, err := s.storage.GetPlan(planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, &NotFoundError{Entity: "plan", ID: planID}
	}
	if plan.UserID != userID {
		return nil, &OwnershipError{Entity: "plan", ID: planID}
	}
	return plan, nil
}
