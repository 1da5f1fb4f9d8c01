package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ren-perez/saldo-backend/internal/api/dto"
	"github.com/ren-perez/saldo-backend/internal/application/service"
)

// RulesHandler handles allocation rule HTTP requests.
type RulesHandler struct {
	Base
	rules *service.RuleService
}

// NewRulesHandler creates a new rules handler.
func NewRulesHandler(rules *service.RuleService) *RulesHandler {
	return &RulesHandler{rules: rules}
}

// List handles GET /api/rules - returns the user's rules by priority.
func (h *RulesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	rules, err := h.rules.ListRules(userID, ParseBoolParam(r, "active_only", false))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.RuleListResponse{Rules: rules, Count: len(rules)})
}

// Create handles POST /api/rules.
func (h *RulesHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateRuleRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	rule, err := h.rules.CreateRule(userID, ruleInput(req))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, rule)
}

// Update handles PUT /api/rules/{ruleID}.
func (h *RulesHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateRuleRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	rule, err := h.rules.UpdateRule(userID, chi.URLParam(r, "ruleID"), ruleInput(req))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rule)
}

// Delete handles DELETE /api/rules/{ruleID}.
func (h *RulesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	if err := h.rules.DeleteRule(userID, chi.URLParam(r, "ruleID")); err != nil {
		h.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Toggle handles POST /api/rules/{ruleID}/toggle.
func (h *RulesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	rule, err := h.rules.ToggleRule(userID, chi.URLParam(r, "ruleID"))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rule)
}

// Reorder handles POST /api/rules/reorder.
func (h *RulesHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	var req dto.ReorderRulesRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.rules.ReorderRules(userID, req.RuleIDs); err != nil {
		h.WriteServiceError(w, err)
		return
	}

	rules, err := h.rules.ListRules(userID, false)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.RuleListResponse{Rules: rules, Count: len(rules)})
}

// ruleInput converts the request body to a service input. Active
// defaults to true when omitted.
func ruleInput(req dto.CreateRuleRequest) service.RuleInput {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return service.RuleInput{
		AccountID: req.AccountID,
		Category:  req.Category,
		RuleType:  req.RuleType,
		Value:     req.Value,
		Active:    active,
	}
}
