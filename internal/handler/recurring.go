package handler

import (
	"net/http"

	"github.com/Dan9191/budget-ledger/internal/models"
	"github.com/gorilla/mux"
)

type templateRequest struct {
	Description   string               `json:"description"`
	Frequency     models.Frequency     `json:"frequency"`
	StartDate     models.Date          `json:"startDate"`
	EndDate       *models.Date         `json:"endDate"`
	LastProcessed *models.Date         `json:"lastProcessed"`
	BudgetID      string               `json:"budgetId"`
	Tags          []string             `json:"tags"`
	Lines         []models.PostingLine `json:"lines"`
	Active        *bool                `json:"active"`
}

func (req templateRequest) template(id string) *models.RecurringTransaction {
	t := &models.RecurringTransaction{
		ID:            id,
		Description:   req.Description,
		Frequency:     req.Frequency,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		LastProcessed: req.LastProcessed,
		BudgetID:      req.BudgetID,
		Tags:          req.Tags,
		Lines:         req.Lines,
		Active:        true,
	}
	if req.Active != nil {
		t.Active = *req.Active
	}
	return t
}

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.svc.ListTemplates(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, templates)
}

func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	mode, ok := h.mode(w, r)
	if !ok {
		return
	}
	var req templateRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.CreateTemplate(r.Context(), req.template(""), mode)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusCreated, t)
}

func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	mode, ok := h.mode(w, r)
	if !ok {
		return
	}
	var req templateRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.UpdateTemplate(r.Context(), req.template(mux.Vars(r)["id"]), mode)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, t)
}

func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTemplate(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type activeRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) SetTemplateActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.SetTemplateActive(r.Context(), mux.Vars(r)["id"], req.Active)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, t)
}

// ProcessDue materializes every due template as of ?asOf= (default today)
func (h *Handler) ProcessDue(w http.ResponseWriter, r *http.Request) {
	mode, ok := h.mode(w, r)
	if !ok {
		return
	}
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}
	report, err := h.svc.ProcessDue(r.Context(), asOf, mode)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, report)
}

func (h *Handler) ProcessTemplate(w http.ResponseWriter, r *http.Request) {
	h.processOne(w, r, false)
}

func (h *Handler) ForceProcessTemplate(w http.ResponseWriter, r *http.Request) {
	h.processOne(w, r, true)
}

func (h *Handler) processOne(w http.ResponseWriter, r *http.Request, force bool) {
	mode, ok := h.mode(w, r)
	if !ok {
		return
	}
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	var (
		tx  *models.Transaction
		err error
	)
	if force {
		tx, err = h.svc.ForceProcessTemplate(r.Context(), id, asOf, mode)
	} else {
		tx, err = h.svc.ProcessTemplate(r.Context(), id, asOf, mode)
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	if tx == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respond(w, http.StatusCreated, tx)
}
