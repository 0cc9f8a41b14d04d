package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dan9191/budget-ledger/internal/config"
	"github.com/Dan9191/budget-ledger/internal/models"
	"github.com/Dan9191/budget-ledger/internal/repository"
	"github.com/Dan9191/budget-ledger/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/crypto/bcrypt"
)

type recordingNotifier struct {
	notices []string
}

func (n *recordingNotifier) SendReconciliationNotice(accountName string, _ *service.CommitResult) error {
	n.notices = append(n.notices, accountName)
	return nil
}

func newTestRouter(t *testing.T, cfg *config.Config, notifier ReconciliationNotifier) http.Handler {
	t.Helper()
	logger, _ := test.NewNullLogger()
	svc := service.NewService(repository.NewMemoryStore(), logger)
	h := NewHandler(svc, cfg, logger, notifier)
	h.today = func() models.Date { return models.MustParseDate("2024-02-01") }
	r := mux.NewRouter()
	h.Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if out != nil && rr.Code < 300 {
		if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decoding %q: %v", method, path, rr.Body.String(), err)
		}
	}
	return rr.Code
}

func createAccount(t *testing.T, h http.Handler, name string) models.Account {
	t.Helper()
	var acc models.Account
	if code := do(t, h, "POST", "/accounts", map[string]string{"name": name, "type": "bank"}, &acc); code != http.StatusCreated {
		t.Fatalf("POST /accounts = %d", code)
	}
	return acc
}

func TestTransactionFlow(t *testing.T) {
	h := newTestRouter(t, &config.Config{Mode: models.ModeDoubleEntry}, nil)
	a := createAccount(t, h, "A")
	b := createAccount(t, h, "B")

	transfer := map[string]any{
		"date": "2024-01-10",
		"lines": []map[string]string{
			{"accountId": a.ID, "amount": "100"},
			{"accountId": b.ID, "amount": "-100"},
		},
	}
	var tx models.Transaction
	if code := do(t, h, "POST", "/transactions", transfer, &tx); code != http.StatusCreated {
		t.Fatalf("POST /transactions = %d", code)
	}

	var acc models.Account
	do(t, h, "GET", "/accounts/"+a.ID, nil, &acc)
	if acc.Balance.String() != "100" {
		t.Errorf("balance = %s, want 100", acc.Balance)
	}

	var audit models.BalanceAudit
	if code := do(t, h, "GET", "/accounts/"+a.ID+"/audit", nil, &audit); code != http.StatusOK || !audit.Difference.IsZero() {
		t.Errorf("GET audit = %d, %+v", code, audit)
	}

	var list []models.Transaction
	do(t, h, "GET", "/transactions?account="+b.ID, nil, &list)
	if len(list) != 1 || list[0].ID != tx.ID {
		t.Errorf("GET /transactions = %+v", list)
	}

	if code := do(t, h, "DELETE", "/accounts/"+a.ID, nil, nil); code != http.StatusConflict {
		t.Errorf("DELETE in-use account = %d, want 409", code)
	}
	if code := do(t, h, "DELETE", "/transactions/"+tx.ID, nil, nil); code != http.StatusNoContent {
		t.Errorf("DELETE /transactions = %d", code)
	}
	if code := do(t, h, "DELETE", "/accounts/"+a.ID, nil, nil); code != http.StatusOK {
		t.Errorf("DELETE unused account = %d", code)
	}
}

func TestErrorStatus(t *testing.T) {
	h := newTestRouter(t, &config.Config{Mode: models.ModeDoubleEntry}, nil)
	a := createAccount(t, h, "A")

	single := map[string]any{
		"date":  "2024-01-10",
		"lines": []map[string]string{{"accountId": a.ID, "amount": "5"}},
	}
	dangling := map[string]any{
		"date":  "2024-01-10",
		"lines": []map[string]string{{"accountId": "acc:ghost", "amount": "5"}},
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unbalanced", "POST", "/transactions", single, http.StatusUnprocessableEntity},
		{"simple mode override", "POST", "/transactions?mode=simple", single, http.StatusCreated},
		{"bad mode", "POST", "/transactions?mode=triple", single, http.StatusBadRequest},
		{"dangling", "POST", "/transactions?mode=simple", dangling, http.StatusUnprocessableEntity},
		{"bad json", "POST", "/transactions", "{", http.StatusBadRequest},
		{"bad date", "POST", "/transactions", `{"date":"10/01/2024","lines":[]}`, http.StatusBadRequest},
		{"missing account", "GET", "/accounts/acc:ghost", nil, http.StatusNotFound},
		{"missing transaction", "PUT", "/transactions/tx:ghost", single, http.StatusNotFound},
		{"nothing staged", "POST", "/accounts/" + a.ID + "/staged/commit", `{"reportedBalance":"0"}`, http.StatusConflict},
		{"bad account type", "POST", "/accounts", map[string]string{"name": "x", "type": "metal"}, http.StatusBadRequest},
		{"bad asOf", "POST", "/recurring/process?asOf=yesterday", nil, http.StatusBadRequest},
		{"login without auth", "POST", "/login", `{"password":"x"}`, http.StatusNotFound},
		{"unknown export format", "GET", "/export?format=xml", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := do(t, h, tt.method, tt.path, tt.body, nil); got != tt.want {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, got, tt.want)
			}
		})
	}
}

func TestRecurringEndpoints(t *testing.T) {
	h := newTestRouter(t, &config.Config{Mode: models.ModeSimple}, nil)
	a := createAccount(t, h, "A")

	var tmpl models.RecurringTransaction
	body := map[string]any{
		"description": "Rent",
		"frequency":   "monthly",
		"startDate":   "2024-01-01",
		"lines":       []map[string]string{{"accountId": a.ID, "amount": "-900"}},
	}
	if code := do(t, h, "POST", "/recurring", body, &tmpl); code != http.StatusCreated {
		t.Fatalf("POST /recurring = %d", code)
	}

	var report service.ProcessReport
	if code := do(t, h, "POST", "/recurring/process", nil, &report); code != http.StatusOK {
		t.Fatalf("POST /recurring/process = %d", code)
	}
	if len(report.Processed) != 1 || report.AsOf != models.MustParseDate("2024-02-01") {
		t.Errorf("report = %+v", report)
	}

	if code := do(t, h, "POST", "/recurring/"+tmpl.ID+"/process", nil, nil); code != http.StatusNoContent {
		t.Errorf("process not-due template = %d, want 204", code)
	}
	if code := do(t, h, "POST", "/recurring/"+tmpl.ID+"/force", nil, nil); code != http.StatusCreated {
		t.Errorf("force template = %d, want 201", code)
	}
	if code := do(t, h, "POST", "/recurring/"+tmpl.ID+"/active", map[string]bool{"active": false}, nil); code != http.StatusOK {
		t.Errorf("deactivate = %d", code)
	}
	if code := do(t, h, "POST", "/recurring/"+tmpl.ID+"/force", nil, nil); code != http.StatusConflict {
		t.Errorf("force inactive template = %d, want 409", code)
	}

	var acc models.Account
	do(t, h, "GET", "/accounts/"+a.ID, nil, &acc)
	if acc.Balance.String() != "-1800" {
		t.Errorf("balance = %s, want -1800", acc.Balance)
	}
}

func TestStagingEndpoints(t *testing.T) {
	notifier := &recordingNotifier{}
	h := newTestRouter(t, &config.Config{Mode: models.ModeDoubleEntry}, notifier)
	a := createAccount(t, h, "Checking")

	for _, amount := range []string{"20", "-5"} {
		entry := map[string]any{
			"date":  "2024-02-03",
			"lines": []map[string]string{{"accountId": a.ID, "amount": amount}},
		}
		if code := do(t, h, "POST", "/accounts/"+a.ID+"/staged", entry, nil); code != http.StatusCreated {
			t.Fatalf("POST staged = %d", code)
		}
	}
	var staged []models.StagedTransaction
	do(t, h, "GET", "/accounts/"+a.ID+"/staged", nil, &staged)
	if len(staged) != 2 {
		t.Fatalf("staged = %d entries", len(staged))
	}

	var result service.CommitResult
	if code := do(t, h, "POST", "/accounts/"+a.ID+"/staged/commit", `{"reportedBalance":"20"}`, &result); code != http.StatusOK {
		t.Fatalf("commit = %d", code)
	}
	if result.Adjustment == nil || result.Discrepancy.String() != "5" {
		t.Errorf("result = %+v", result)
	}
	if len(notifier.notices) != 1 || notifier.notices[0] != "Checking" {
		t.Errorf("notices = %v", notifier.notices)
	}

	var acc models.Account
	do(t, h, "GET", "/accounts/"+a.ID, nil, &acc)
	if acc.Balance.String() != "20" {
		t.Errorf("balance = %s, want 20", acc.Balance)
	}

	var adjustments []models.Transaction
	do(t, h, "GET", "/transactions?account="+a.ID+"&tag="+models.TagReconciliation, nil, &adjustments)
	if len(adjustments) != 1 || adjustments[0].ID != result.Adjustment.ID {
		t.Errorf("GET /transactions?tag = %+v", adjustments)
	}
}

func TestCommitRequiresReportedBalance(t *testing.T) {
	notifier := &recordingNotifier{}
	h := newTestRouter(t, &config.Config{Mode: models.ModeDoubleEntry}, notifier)
	a := createAccount(t, h, "Checking")
	entry := map[string]any{
		"date":  "2024-02-03",
		"lines": []map[string]string{{"accountId": a.ID, "amount": "20"}},
	}
	if code := do(t, h, "POST", "/accounts/"+a.ID+"/staged", entry, nil); code != http.StatusCreated {
		t.Fatalf("POST staged = %d", code)
	}

	for _, body := range []string{`{}`, `{"reportedBalance":null}`} {
		if code := do(t, h, "POST", "/accounts/"+a.ID+"/staged/commit", body, nil); code != http.StatusBadRequest {
			t.Errorf("commit %s = %d, want %d", body, code, http.StatusBadRequest)
		}
	}

	var staged []models.StagedTransaction
	do(t, h, "GET", "/accounts/"+a.ID+"/staged", nil, &staged)
	if len(staged) != 1 {
		t.Errorf("staged = %d entries, want 1", len(staged))
	}
	var acc models.Account
	do(t, h, "GET", "/accounts/"+a.ID, nil, &acc)
	if !acc.Balance.IsZero() {
		t.Errorf("balance = %s, want 0", acc.Balance)
	}
	if len(notifier.notices) != 0 {
		t.Errorf("notices = %v", notifier.notices)
	}
}

func TestImportRejectsNullEntries(t *testing.T) {
	h := newTestRouter(t, &config.Config{Mode: models.ModeSimple}, nil)
	if code := do(t, h, "POST", "/import", `{"accounts":[null]}`, nil); code != http.StatusBadRequest {
		t.Errorf("import = %d, want %d", code, http.StatusBadRequest)
	}
}

func TestExportImportEndpoints(t *testing.T) {
	cfg := &config.Config{Mode: models.ModeSimple}
	src := newTestRouter(t, cfg, nil)
	a := createAccount(t, src, "A")
	do(t, src, "POST", "/transactions", map[string]any{
		"date":  "2024-01-10",
		"lines": []map[string]string{{"accountId": a.ID, "amount": "12.34"}},
	}, nil)

	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/export?format="+format, nil)
			rr := httptest.NewRecorder()
			src.ServeHTTP(rr, req)
			if rr.Code != http.StatusOK {
				t.Fatalf("GET /export = %d", rr.Code)
			}

			dst := newTestRouter(t, cfg, nil)
			var audits []models.BalanceAudit
			if code := do(t, dst, "POST", "/import?clear=true&format="+format, rr.Body.String(), &audits); code != http.StatusOK {
				t.Fatalf("POST /import = %d", code)
			}
			if len(audits) != 1 || !audits[0].InSync(service.Tolerance) || audits[0].Cached.String() != "12.34" {
				t.Errorf("audits after import = %+v", audits)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{JWTSecret: "secret", OwnerPasswordHash: string(hash), Mode: models.ModeDoubleEntry}
	h := newTestRouter(t, cfg, nil)

	if code := do(t, h, "GET", "/accounts", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("GET /accounts without token = %d, want 401", code)
	}
	if code := do(t, h, "POST", "/login", `{"password":"wrong"}`, nil); code != http.StatusUnauthorized {
		t.Errorf("login with wrong password = %d", code)
	}

	var resp map[string]string
	if code := do(t, h, "POST", "/login", `{"password":"hunter2"}`, &resp); code != http.StatusOK || resp["token"] == "" {
		t.Fatalf("login = %d, %v", code, resp)
	}

	req := httptest.NewRequest("GET", "/accounts", strings.NewReader(""))
	req.Header.Set("Authorization", "Bearer "+resp["token"])
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("GET /accounts with token = %d", rr.Code)
	}
}
