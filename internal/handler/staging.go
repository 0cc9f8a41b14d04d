package handler

import (
	"net/http"

	"github.com/Dan9191/budget-ledger/internal/middleware"
	"github.com/Dan9191/budget-ledger/internal/models"
	"github.com/Dan9191/budget-ledger/internal/repository"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type stageRequest struct {
	Date        models.Date          `json:"date"`
	Description string               `json:"description"`
	BudgetID    string               `json:"budgetId"`
	Tags        []string             `json:"tags"`
	Lines       []models.PostingLine `json:"lines"`
}

type commitRequest struct {
	ReportedBalance *decimal.Decimal `json:"reportedBalance"`
}

func (h *Handler) ListStaged(w http.ResponseWriter, r *http.Request) {
	staged, err := h.svc.ListStaged(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, staged)
}

// Stage holds an entry against the account until the next commit
func (h *Handler) Stage(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if !decode(w, r, &req) {
		return
	}
	staged, err := h.svc.Stage(r.Context(), &models.StagedTransaction{
		AccountID:   mux.Vars(r)["id"],
		Date:        req.Date,
		Description: req.Description,
		BudgetID:    req.BudgetID,
		Tags:        req.Tags,
		Lines:       req.Lines,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusCreated, staged)
}

func (h *Handler) ClearStaged(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ClearAll(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]int{"cleared": n})
}

func (h *Handler) Unstage(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Unstage(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Commit posts the staged entries and settles the account on the reported balance
func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	mode, ok := h.mode(w, r)
	if !ok {
		return
	}
	var req commitRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ReportedBalance == nil {
		http.Error(w, "reportedBalance is required", http.StatusBadRequest)
		return
	}
	accountID := mux.Vars(r)["id"]
	result, err := h.svc.Commit(r.Context(), accountID, *req.ReportedBalance, mode)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.log.WithField("user", middleware.Subject(r.Context())).
		Infof("Committed %d staged entries on %s", len(result.Committed), accountID)
	if result.Adjustment != nil && h.notifier != nil {
		name := accountID
		if account, err := h.svc.GetAccount(r.Context(), accountID); err == nil {
			name = account.Name
		}
		if err := h.notifier.SendReconciliationNotice(name, result); err != nil {
			h.log.Warnf("Failed to send reconciliation notice: %v", err)
		}
	}
	respond(w, http.StatusOK, result)
}

// ImportStatement stages the booked entries of a CAMT.053 statement in the request body
func (h *Handler) ImportStatement(w http.ResponseWriter, r *http.Request) {
	staged, closing, err := h.svc.ImportStatement(r.Context(), mux.Vars(r)["id"], r.Body)
	if err != nil {
		h.fail(w, err)
		return
	}
	if staged == nil {
		staged = []*models.StagedTransaction{}
	}
	respond(w, http.StatusCreated, struct {
		Staged         []*models.StagedTransaction `json:"staged"`
		ClosingBalance *decimal.Decimal             `json:"closingBalance,omitempty"`
	}{staged, closing})
}

// Export returns the whole ledger as JSON, or YAML with ?format=yaml
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	switch format {
	case "", repository.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	case repository.FormatYAML:
		w.Header().Set("Content-Type", "application/yaml")
	default:
		http.Error(w, "unknown format "+format, http.StatusBadRequest)
		return
	}
	dump, err := h.svc.Export(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := repository.EncodeDump(w, dump, format); err != nil {
		h.log.Errorf("Failed to encode export: %v", err)
	}
}

// Import restores a dump; ?clear=true wipes the ledger first
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	dump, err := repository.DecodeDump(r.Body, r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.svc.Import(r.Context(), dump, r.URL.Query().Get("clear") == "true"); err != nil {
		h.fail(w, err)
		return
	}
	h.log.WithField("user", middleware.Subject(r.Context())).Info("Ledger restored from dump")
	audits, err := h.svc.AuditAll(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, audits)
}
