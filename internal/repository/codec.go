package repository

import (
	"encoding/json"
	"fmt"

	"github.com/Dan9191/budget-ledger/internal/models"
)

// envelope tags every stored record with its kind so a record can never be
// decoded as the wrong entity.
type envelope struct {
	Kind Collection      `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func encodeRecord(c Collection, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s record: %w", c, err)
	}
	return json.Marshal(envelope{Kind: c, Data: data})
}

func decodeRecord[T any](c Collection, raw []byte, validate func(*T) error) (*T, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, c, err)
	}
	if env.Kind != c {
		return nil, fmt.Errorf("%w: expected kind %q, got %q", ErrMalformedRecord, c, env.Kind)
	}
	v := new(T)
	if err := json.Unmarshal(env.Data, v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, c, err)
	}
	if err := validate(v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, c, err)
	}
	return v, nil
}

func validateLines(lines []models.PostingLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("no lines")
	}
	for i, l := range lines {
		if l.AccountID == "" {
			return fmt.Errorf("line %d has no account", i)
		}
		if l.Amount.IsZero() {
			return fmt.Errorf("line %d has a zero amount", i)
		}
	}
	return nil
}

// ValidateAccount checks the shape of an account record.
func ValidateAccount(a *models.Account) error {
	if a.ID == "" {
		return fmt.Errorf("account id is required")
	}
	if !a.Type.Valid() {
		return fmt.Errorf("account %s has unknown type %q", a.ID, a.Type)
	}
	return nil
}

// ValidateBudget checks the shape of a budget record.
func ValidateBudget(b *models.Budget) error {
	if b.ID == "" {
		return fmt.Errorf("budget id is required")
	}
	return nil
}

// ValidateTransaction checks the shape of a transaction record.
func ValidateTransaction(t *models.Transaction) error {
	if t.ID == "" {
		return fmt.Errorf("transaction id is required")
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction %s has no date", t.ID)
	}
	if err := validateLines(t.Lines); err != nil {
		return fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	return nil
}

// ValidateRecurring checks the shape of a recurring transaction template.
func ValidateRecurring(r *models.RecurringTransaction) error {
	if r.ID == "" {
		return fmt.Errorf("recurring transaction id is required")
	}
	if !r.Frequency.Valid() {
		return fmt.Errorf("recurring transaction %s has unknown frequency %q", r.ID, r.Frequency)
	}
	if r.StartDate.IsZero() {
		return fmt.Errorf("recurring transaction %s has no start date", r.ID)
	}
	if err := validateLines(r.Lines); err != nil {
		return fmt.Errorf("recurring transaction %s: %w", r.ID, err)
	}
	return nil
}

// ValidateStaged checks the shape of a staged transaction record.
func ValidateStaged(s *models.StagedTransaction) error {
	if s.ID == "" {
		return fmt.Errorf("staged transaction id is required")
	}
	if s.AccountID == "" {
		return fmt.Errorf("staged transaction %s has no account", s.ID)
	}
	if s.Date.IsZero() {
		return fmt.Errorf("staged transaction %s has no date", s.ID)
	}
	if err := validateLines(s.Lines); err != nil {
		return fmt.Errorf("staged transaction %s: %w", s.ID, err)
	}
	return nil
}
