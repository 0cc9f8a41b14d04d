package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Dan9191/budget-ledger/internal/config"
	"github.com/Dan9191/budget-ledger/internal/middleware"
	"github.com/Dan9191/budget-ledger/internal/models"
	"github.com/Dan9191/budget-ledger/internal/repository"
	"github.com/Dan9191/budget-ledger/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// ReconciliationNotifier is told when a commit had to book an adjustment.
type ReconciliationNotifier interface {
	SendReconciliationNotice(accountName string, result *service.CommitResult) error
}

type Handler struct {
	svc      *service.Service
	cfg      *config.Config
	log      *logrus.Logger
	notifier ReconciliationNotifier
	today    func() models.Date
}

// NewHandler creates the API handler. notifier may be nil.
func NewHandler(svc *service.Service, cfg *config.Config, log *logrus.Logger, notifier ReconciliationNotifier) *Handler {
	return &Handler{svc: svc, cfg: cfg, log: log, notifier: notifier, today: models.Today}
}

// Routes registers every endpoint on r. Everything but /login sits behind the auth middleware.
func (h *Handler) Routes(r *mux.Router) {
	r.Use(middleware.RequestLogger(h.log))
	r.HandleFunc("/login", h.Login).Methods("POST")

	api := r.PathPrefix("/").Subrouter()
	api.Use(middleware.AuthMiddleware(h.cfg))

	api.HandleFunc("/accounts", h.ListAccounts).Methods("GET")
	api.HandleFunc("/accounts", h.CreateAccount).Methods("POST")
	api.HandleFunc("/accounts/{id}", h.GetAccount).Methods("GET")
	api.HandleFunc("/accounts/{id}", h.UpdateAccount).Methods("PUT")
	api.HandleFunc("/accounts/{id}", h.DeleteAccount).Methods("DELETE")
	api.HandleFunc("/accounts/{id}/audit", h.AuditAccount).Methods("GET")
	api.HandleFunc("/accounts/{id}/audit/apply", h.ApplyCorrection).Methods("POST")

	api.HandleFunc("/transactions", h.ListTransactions).Methods("GET")
	api.HandleFunc("/transactions", h.CreateTransaction).Methods("POST")
	api.HandleFunc("/transactions/{id}", h.UpdateTransaction).Methods("PUT")
	api.HandleFunc("/transactions/{id}", h.DeleteTransaction).Methods("DELETE")

	api.HandleFunc("/budgets", h.ListBudgets).Methods("GET")
	api.HandleFunc("/budgets", h.CreateBudget).Methods("POST")
	api.HandleFunc("/budgets/{id}", h.DeleteBudget).Methods("DELETE")

	api.HandleFunc("/recurring", h.ListTemplates).Methods("GET")
	api.HandleFunc("/recurring", h.CreateTemplate).Methods("POST")
	api.HandleFunc("/recurring/process", h.ProcessDue).Methods("POST")
	api.HandleFunc("/recurring/{id}", h.UpdateTemplate).Methods("PUT")
	api.HandleFunc("/recurring/{id}", h.DeleteTemplate).Methods("DELETE")
	api.HandleFunc("/recurring/{id}/active", h.SetTemplateActive).Methods("POST")
	api.HandleFunc("/recurring/{id}/process", h.ProcessTemplate).Methods("POST")
	api.HandleFunc("/recurring/{id}/force", h.ForceProcessTemplate).Methods("POST")

	api.HandleFunc("/accounts/{id}/staged", h.ListStaged).Methods("GET")
	api.HandleFunc("/accounts/{id}/staged", h.Stage).Methods("POST")
	api.HandleFunc("/accounts/{id}/staged", h.ClearStaged).Methods("DELETE")
	api.HandleFunc("/accounts/{id}/staged/commit", h.Commit).Methods("POST")
	api.HandleFunc("/accounts/{id}/staged/import", h.ImportStatement).Methods("POST")
	api.HandleFunc("/staged/{id}", h.Unstage).Methods("DELETE")

	api.HandleFunc("/export", h.Export).Methods("GET")
	api.HandleFunc("/import", h.Import).Methods("POST")
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login exchanges the owner password for a bearer token
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.AuthEnabled() {
		http.Error(w, "authentication is not configured", http.StatusNotFound)
		return
	}
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.OwnerPasswordHash), []byte(req.Password)); err != nil {
		h.log.Warn("Login failed: invalid password")
		http.Error(w, "invalid password", http.StatusUnauthorized)
		return
	}
	token, err := middleware.IssueToken(h.cfg.JWTSecret, "owner", tokenTTL)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"token": token})
}

// mode reads ?mode=, falling back to the configured ledger mode.
func (h *Handler) mode(w http.ResponseWriter, r *http.Request) (models.Mode, bool) {
	raw := r.URL.Query().Get("mode")
	if raw == "" {
		return h.cfg.Mode, true
	}
	m, err := models.ParseMode(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return m, true
}

// asOf reads ?asOf=, defaulting to today.
func (h *Handler) asOf(w http.ResponseWriter, r *http.Request) (models.Date, bool) {
	raw := r.URL.Query().Get("asOf")
	if raw == "" {
		return h.today(), true
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid asOf: %v", err), http.StatusBadRequest)
		return models.Date{}, false
	}
	return d, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnbalancedTransaction),
		errors.Is(err, service.ErrEmptyPosting),
		errors.Is(err, service.ErrDanglingAccountReference):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNothingStaged),
		errors.Is(err, service.ErrAccountInUse),
		errors.Is(err, service.ErrDuplicateTransaction),
		errors.Is(err, service.ErrTemplateInactive):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidFrequency),
		errors.Is(err, repository.ErrMalformedRecord):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Errorf("Request failed: %v", err)
	}
	http.Error(w, err.Error(), status)
}
