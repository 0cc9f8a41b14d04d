package handler

import (
	"net/http"

	"github.com/Dan9191/budget-ledger/internal/models"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// accountRequest carries the editable fields of an account. Balances are never accepted from clients.
type accountRequest struct {
	Name string             `json:"name"`
	Type models.AccountType `json:"type"`
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.ListAccounts(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, accounts)
}

// CreateAccount handles account creation
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !decode(w, r, &req) {
		return
	}
	account, err := h.svc.CreateAccount(r.Context(), req.Name, req.Type)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusCreated, account)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.svc.GetAccount(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, account)
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !decode(w, r, &req) {
		return
	}
	account, err := h.svc.UpdateAccount(r.Context(), mux.Vars(r)["id"], req.Name, req.Type)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, account)
}

// DeleteAccount removes an account; ?cascade=true also removes the transactions referencing it
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	cascade := r.URL.Query().Get("cascade") == "true"
	removed, err := h.svc.DeleteAccount(r.Context(), mux.Vars(r)["id"], cascade)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]int{"deleted_transactions": removed})
}

func (h *Handler) AuditAccount(w http.ResponseWriter, r *http.Request) {
	audit, err := h.svc.RecomputeAccountBalance(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, audit)
}

// ApplyCorrection overwrites the cached balance with the one derived from history
func (h *Handler) ApplyCorrection(w http.ResponseWriter, r *http.Request) {
	audit, err := h.svc.ApplyBalanceCorrection(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, audit)
}

type budgetRequest struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.svc.ListBudgets(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, budgets)
}

func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if !decode(w, r, &req) {
		return
	}
	budget, err := h.svc.CreateBudget(r.Context(), req.Name, req.Amount)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusCreated, budget)
}

func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteBudget(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
