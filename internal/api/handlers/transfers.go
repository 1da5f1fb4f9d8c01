package handlers

import (
	"net/http"

	"github.com/ren-perez/saldo-backend/internal/api/dto"
	"github.com/ren-perez/saldo-backend/internal/application/service"
)

// TransfersHandler handles transfer detection and pairing requests.
type TransfersHandler struct {
	Base
	transfers *service.TransferService
}

// NewTransfersHandler creates a new transfers handler.
func NewTransfersHandler(transfers *service.TransferService) *TransfersHandler {
	return &TransfersHandler{transfers: transfers}
}

// Potential handles GET /api/transfers/potential. Optional max_days and
// max_ratio query params widen or tighten the configured tolerances.
func (h *TransfersHandler) Potential(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	suggestions, err := h.transfers.PotentialTransfers(userID,
		ParseFloatParam(r, "max_days", 0),
		ParseFloatParam(r, "max_ratio", 0),
	)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.PotentialTransferListResponse{Transfers: suggestions, Count: len(suggestions)})
}

// Pair handles POST /api/transfers/pair.
func (h *TransfersHandler) Pair(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	var req dto.PairTransferRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	pairID, err := h.transfers.PairTransfer(userID, req.OutgoingID, req.IncomingID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, dto.PairTransferResponse{PairID: pairID})
}

// Unpair handles POST /api/transfers/unpair.
func (h *TransfersHandler) Unpair(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	var req dto.UnpairTransferRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.transfers.UnpairTransfer(userID, req.TransactionID); err != nil {
		h.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Ignore handles POST /api/transfers/ignore.
func (h *TransfersHandler) Ignore(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	var req dto.IgnorePairRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.transfers.IgnorePair(userID, req.OutgoingID, req.IncomingID); err != nil {
		h.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Unignore handles DELETE /api/transfers/ignore.
func (h *TransfersHandler) Unignore(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	var req dto.IgnorePairRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.transfers.UnignorePair(userID, req.OutgoingID, req.IncomingID); err != nil {
		h.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Ignored handles GET /api/transfers/ignored.
func (h *TransfersHandler) Ignored(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	pairs, err := h.transfers.ListIgnoredPairs(userID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.IgnoredPairListResponse{Pairs: pairs, Count: len(pairs)})
}
