package handler

import (
	"net/http"
	"slices"

	"github.com/Dan9191/budget-ledger/internal/models"
	"github.com/gorilla/mux"
)

type transactionRequest struct {
	ID          string               `json:"id"`
	Date        models.Date          `json:"date"`
	Description string               `json:"description"`
	BudgetID    string               `json:"budgetId"`
	Tags        []string             `json:"tags"`
	Lines       []models.PostingLine `json:"lines"`
}

func (req transactionRequest) transaction() *models.Transaction {
	return &models.Transaction{
		ID:          req.ID,
		Date:        req.Date,
		Description: req.Description,
		BudgetID:    req.BudgetID,
		Tags:        req.Tags,
		Lines:       req.Lines,
	}
}

// ListTransactions returns all transactions, or those touching ?account= and carrying ?tag=
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.ListTransactions(r.Context(), r.URL.Query().Get("account"))
	if err != nil {
		h.fail(w, err)
		return
	}
	if tag := r.URL.Query().Get("tag"); tag != "" {
		txs = slices.DeleteFunc(txs, func(tx *models.Transaction) bool { return !tx.HasTag(tag) })
	}
	respond(w, http.StatusOK, txs)
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	mode, ok := h.mode(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if !decode(w, r, &req) {
		return
	}
	tx, err := h.svc.CreateTransaction(r.Context(), req.transaction(), mode)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusCreated, tx)
}

func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	mode, ok := h.mode(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if !decode(w, r, &req) {
		return
	}
	req.ID = mux.Vars(r)["id"]
	tx, err := h.svc.UpdateTransaction(r.Context(), req.transaction(), mode)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, tx)
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTransaction(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
