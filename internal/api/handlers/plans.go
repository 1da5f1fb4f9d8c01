package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ren-perez/saldo-backend/internal/api/dto"
	"github.com/ren-perez/saldo-backend/internal/application/service"
)

// PlansHandler handles income plan HTTP requests, including plan-level
// matching and the distribution checklist.
type PlansHandler struct {
	Base
	plans          *service.PlanService
	matches        *service.MatchService
	reconciliation *service.ReconciliationService
}

// NewPlansHandler creates a new plans handler.
func NewPlansHandler(plans *service.PlanService, matches *service.MatchService, reconciliation *service.ReconciliationService) *PlansHandler {
	return &PlansHandler{plans: plans, matches: matches, reconciliation: reconciliation}
}

// List handles GET /api/plans.
func (h *PlansHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	plans, err := h.plans.ListPlans(userID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.PlanListResponse{Plans: plans, Count: len(plans)})
}

// Get handles GET /api/plans/{planID}.
func (h *PlansHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	plan, err := h.plans.GetPlan(userID, chi.URLParam(r, "planID"))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, plan)
}

// Create handles POST /api/plans.
func (h *PlansHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	var req dto.CreatePlanRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	expectedDate, err := time.Parse("2006-01-02", req.ExpectedDate)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("expected_date must be YYYY-MM-DD"))
		return
	}

	plan, err := h.plans.CreatePlan(userID, service.PlanInput{
		Label:          req.Label,
		ExpectedDate:   expectedDate,
		ExpectedAmount: req.ExpectedAmount,
		Recurrence:     req.Recurrence,
	})
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, plan)
}

// Delete handles DELETE /api/plans/{planID}.
func (h *PlansHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	if err := h.plans.DeletePlan(userID, chi.URLParam(r, "planID")); err != nil {
		h.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkMissed handles POST /api/plans/{planID}/missed.
func (h *PlansHandler) MarkMissed(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	plan, err := h.plans.MarkMissed(userID, chi.URLParam(r, "planID"))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, plan)
}

// RevertMissed handles DELETE /api/plans/{planID}/missed.
func (h *PlansHandler) RevertMissed(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	plan, err := h.plans.RevertMissed(userID, chi.URLParam(r, "planID"))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, plan)
}

// Match handles POST /api/plans/{planID}/match.
func (h *PlansHandler) Match(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	var req dto.MatchPlanRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	plan, err := h.matches.MatchPlan(userID, chi.URLParam(r, "planID"), req.TransactionID, req.Reallocate)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, plan)
}

// Unmatch handles DELETE /api/plans/{planID}/match.
func (h *PlansHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	plan, err := h.matches.UnmatchPlan(userID, chi.URLParam(r, "planID"))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, plan)
}

// Suggestions handles GET /api/plans/{planID}/suggestions.
func (h *PlansHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	suggestions, err := h.matches.SuggestForPlan(userID, chi.URLParam(r, "planID"))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.SuggestionListResponse{Suggestions: suggestions, Count: len(suggestions)})
}

// Checklist handles GET /api/plans/{planID}/checklist.
func (h *PlansHandler) Checklist(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	checklist, err := h.reconciliation.DistributionChecklist(userID, chi.URLParam(r, "planID"))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, checklist)
}
