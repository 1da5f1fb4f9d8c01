package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ren-perez/saldo-backend/internal/api/dto"
	"github.com/ren-perez/saldo-backend/internal/application/service"
)

// AllocationsHandler handles waterfall runs, allocation record edits and
// record-level transaction matching.
type AllocationsHandler struct {
	Base
	allocations *service.AllocationService
	matches     *service.MatchService
}

// NewAllocationsHandler creates a new allocations handler.
func NewAllocationsHandler(allocations *service.AllocationService, matches *service.MatchService) *AllocationsHandler {
	return &AllocationsHandler{allocations: allocations, matches: matches}
}

// Preview handles POST /api/allocations/preview.
func (h *AllocationsHandler) Preview(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	var req dto.PreviewAllocationRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.allocations.Preview(userID, req.IncomeAmount)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.PreviewResponse{Items: result.Items, Unallocated: result.Unallocated})
}

// Run handles POST /api/plans/{planID}/allocations/run.
func (h *AllocationsHandler) Run(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	records, unallocated, err := h.allocations.RunForPlan(userID, chi.URLParam(r, "planID"))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.RunAllocationsResponse{Records: records, Unallocated: unallocated})
}

// ListForPlan handles GET /api/plans/{planID}/allocations.
func (h *AllocationsHandler) ListForPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	records, err := h.allocations.ListForPlan(userID, chi.URLParam(r, "planID"))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.RecordListResponse{Records: records, Count: len(records)})
}

// Add handles POST /api/plans/{planID}/allocations.
func (h *AllocationsHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	var req dto.AddAllocationRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	record, err := h.allocations.AddRecord(userID, chi.URLParam(r, "planID"), req.AccountID, req.Category, req.Amount)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, record)
}

// UpdateAmount handles PUT /api/allocations/{recordID}.
func (h *AllocationsHandler) UpdateAmount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	var req dto.UpdateAllocationAmountRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	record, err := h.allocations.UpdateAmount(userID, chi.URLParam(r, "recordID"), req.Amount)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, record)
}

// Delete handles DELETE /api/allocations/{recordID}.
func (h *AllocationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	if err := h.allocations.DeleteRecord(userID, chi.URLParam(r, "recordID")); err != nil {
		h.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkComplete handles POST /api/allocations/{recordID}/complete.
func (h *AllocationsHandler) MarkComplete(w http.ResponseWriter, r *http.Request) {
	h.setCompleted(w, r, true)
}

// UnmarkComplete handles DELETE /api/allocations/{recordID}/complete.
func (h *AllocationsHandler) UnmarkComplete(w http.ResponseWriter, r *http.Request) {
	h.setCompleted(w, r, false)
}

func (h *AllocationsHandler) setCompleted(w http.ResponseWriter, r *http.Request, completed bool) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	if err := h.allocations.SetCompleted(userID, chi.URLParam(r, "recordID"), completed); err != nil {
		h.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Match handles POST /api/allocations/{recordID}/matches.
func (h *AllocationsHandler) Match(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	var req dto.MatchAllocationRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	match, err := h.matches.MatchAllocation(userID, chi.URLParam(r, "recordID"), req.TransactionID, req.Amount)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, match)
}

// Unmatch handles DELETE /api/matches/{matchID}.
func (h *AllocationsHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	if err := h.matches.UnmatchAllocation(userID, chi.URLParam(r, "matchID")); err != nil {
		h.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Suggestions handles GET /api/allocations/{recordID}/suggestions.
func (h *AllocationsHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	suggestions, err := h.matches.SuggestForAllocation(userID, chi.URLParam(r, "recordID"))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.SuggestionListResponse{Suggestions: suggestions, Count: len(suggestions)})
}
