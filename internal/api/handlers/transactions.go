package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ren-perez/saldo-backend/internal/api/dto"
	"github.com/ren-perez/saldo-backend/internal/application/service"
	"github.com/ren-perez/saldo-backend/internal/infrastructure/storage"
)

// TransactionsHandler serves read access to collaborator transaction and
// account data, plus the transaction-to-plans reverse lookup.
type TransactionsHandler struct {
	Base
	repo    storage.Repository
	matches *service.MatchService
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo storage.Repository, matches *service.MatchService) *TransactionsHandler {
	return &TransactionsHandler{repo: repo, matches: matches}
}

// List handles GET /api/transactions with account, date, unpaired and
// unconsumed filters.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	filters := storage.TransactionFilters{
		UserID:     userID,
		AccountID:  r.URL.Query().Get("account_id"),
		Unpaired:   ParseBoolParam(r, "unpaired", false),
		Unconsumed: ParseBoolParam(r, "unconsumed", false),
		Limit:      ParseIntParam(r, "limit", 0),
	}

	if from := r.URL.Query().Get("from"); from != "" {
		parsed, err := time.Parse("2006-01-02", from)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("from must be YYYY-MM-DD"))
			return
		}
		filters.From = &parsed
	}
	if to := r.URL.Query().Get("to"); to != "" {
		parsed, err := time.Parse("2006-01-02", to)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("to must be YYYY-MM-DD"))
			return
		}
		filters.To = &parsed
	}

	txs, err := h.repo.ListTransactions(filters)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.TransactionListResponse{Transactions: txs, Count: len(txs)})
}

// Plans handles GET /api/transactions/{transactionID}/plans.
func (h *TransactionsHandler) Plans(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	plans, err := h.matches.PlansForTransaction(userID, chi.URLParam(r, "transactionID"))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.PlanListResponse{Plans: plans, Count: len(plans)})
}

// Accounts handles GET /api/accounts.
func (h *TransactionsHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	accounts, err := h.repo.ListAccounts(userID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.AccountListResponse{Accounts: accounts, Count: len(accounts)})
}
