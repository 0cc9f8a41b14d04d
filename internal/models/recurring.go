package models

// Frequency is the scheduling interval of a recurring transaction.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// RecurringTransaction is a template materialized into a Transaction each time it is due.
type RecurringTransaction struct {
	ID            string        `json:"id" yaml:"id"`
	Description   string        `json:"description" yaml:"description"`
	Frequency     Frequency     `json:"frequency" yaml:"frequency"`
	StartDate     Date          `json:"startDate" yaml:"startDate"`
	EndDate       *Date         `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	LastProcessed *Date         `json:"lastProcessed,omitempty" yaml:"lastProcessed,omitempty"`
	BudgetID      string        `json:"budgetId,omitempty" yaml:"budgetId,omitempty"`
	Tags          []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	Lines         []PostingLine `json:"lines" yaml:"lines"`
	Active        bool          `json:"active" yaml:"active"`
}

// Reference returns the date due-ness is measured from.
func (r *RecurringTransaction) Reference() Date {
	if r.LastProcessed != nil {
		return *r.LastProcessed
	}
	return r.StartDate
}

// Expired reports whether the template's end date lies before asOf.
func (r *RecurringTransaction) Expired(asOf Date) bool {
	return r.EndDate != nil && r.EndDate.Before(asOf)
}
