package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Dan9191/budget-ledger/internal/models"
	"github.com/Dan9191/budget-ledger/internal/repository"
	"github.com/sirupsen/logrus"
)

const recurringSuffix = " (recurring)"

// IsDue reports whether a template last processed on last is due again on asOf.
// Monthly and yearly intervals compare calendar fields, not day counts: a template
// processed on Jan 31 is due on Feb 1.
func IsDue(last, asOf models.Date, frequency models.Frequency) bool {
	switch frequency {
	case models.FrequencyDaily:
		return models.DaysBetween(last, asOf) >= 1
	case models.FrequencyWeekly:
		return models.DaysBetween(last, asOf) >= 7
	case models.FrequencyMonthly:
		return models.MonthsBetween(last, asOf) >= 1
	case models.FrequencyYearly:
		return asOf.Year() > last.Year()
	}
	return false
}

// ProcessedTemplate records one materialized template.
type ProcessedTemplate struct {
	TemplateID    string `json:"template_id"`
	TransactionID string `json:"transaction_id"`
}

// TemplateFailure records a template that was due but could not be materialized.
type TemplateFailure struct {
	TemplateID string `json:"template_id"`
	Error      string `json:"error"`
	Err        error  `json:"-"`
}

// ProcessReport summarizes one ProcessDue batch.
type ProcessReport struct {
	AsOf      models.Date         `json:"as_of"`
	Processed []ProcessedTemplate `json:"processed"`
	Failures  []TemplateFailure   `json:"failures"`
}

// materialize builds the transaction a template produces on asOf.
func materialize(t *models.RecurringTransaction, asOf models.Date) *models.Transaction {
	return &models.Transaction{
		Date:        asOf,
		Description: t.Description + recurringSuffix,
		BudgetID:    t.BudgetID,
		Tags:        slices.Clone(t.Tags),
		Lines:       models.CopyLines(t.Lines),
	}
}

// processTemplate materializes one template and advances its marker in a single unit of work.
// Without force, inactive, expired or not-yet-due templates are skipped and a nil transaction is returned.
func (s *Service) processTemplate(ctx context.Context, id string, asOf models.Date, mode models.Mode, force bool) (*models.Transaction, error) {
	var created *models.Transaction
	err := s.update(ctx, func(repo *repository.Repository) error {
		t, err := repo.GetRecurring(ctx, id)
		if err != nil {
			return notFound(err, ErrNotFound, "recurring transaction "+id)
		}
		if !t.Active {
			if force {
				return fmt.Errorf("%w: %s", ErrTemplateInactive, id)
			}
			return nil
		}
		if !force && (t.Expired(asOf) || !IsDue(t.Reference(), asOf, t.Frequency)) {
			return nil
		}

		tx := materialize(t, asOf)
		if err := s.createTransaction(ctx, repo, tx, mode); err != nil {
			return err
		}
		processed := asOf
		t.LastProcessed = &processed
		if err := repo.PutRecurring(ctx, t); err != nil {
			return err
		}
		created = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ProcessDue materializes every active template that is due on asOf.
// A failing template is reported and keeps its last-processed date; the batch continues.
func (s *Service) ProcessDue(ctx context.Context, asOf models.Date, mode models.Mode) (*ProcessReport, error) {
	templates, err := s.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}

	report := &ProcessReport{AsOf: asOf, Processed: []ProcessedTemplate{}, Failures: []TemplateFailure{}}
	for _, t := range templates {
		if !t.Active || t.Expired(asOf) || !IsDue(t.Reference(), asOf, t.Frequency) {
			continue
		}
		tx, err := s.processTemplate(ctx, t.ID, asOf, mode, false)
		if err != nil {
			s.log.WithFields(logrus.Fields{"template": t.ID, "as_of": asOf.String()}).WithError(err).Warn("Recurring transaction failed")
			report.Failures = append(report.Failures, TemplateFailure{TemplateID: t.ID, Error: err.Error(), Err: err})
			continue
		}
		if tx != nil {
			report.Processed = append(report.Processed, ProcessedTemplate{TemplateID: t.ID, TransactionID: tx.ID})
		}
	}

	s.log.Infof("Recurring transactions processed as of %s: %d created, %d failed", asOf, len(report.Processed), len(report.Failures))
	return report, nil
}

// ProcessTemplate runs the due check for one template and materializes it if due.
// It returns a nil transaction when the template is not due.
func (s *Service) ProcessTemplate(ctx context.Context, id string, asOf models.Date, mode models.Mode) (*models.Transaction, error) {
	return s.processTemplate(ctx, id, asOf, mode, false)
}

// ForceProcessTemplate materializes an active template on asOf regardless of its schedule and end date.
func (s *Service) ForceProcessTemplate(ctx context.Context, id string, asOf models.Date, mode models.Mode) (*models.Transaction, error) {
	tx, err := s.processTemplate(ctx, id, asOf, mode, true)
	if err != nil {
		return nil, err
	}
	s.log.Warnf("Recurring transaction %s forced out of schedule on %s", id, asOf)
	return tx, nil
}

func validateTemplate(t *models.RecurringTransaction, mode models.Mode) error {
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if !t.Frequency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, t.Frequency)
	}
	if t.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}
	if t.EndDate != nil && t.EndDate.Before(t.StartDate) {
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidInput, t.EndDate, t.StartDate)
	}
	return validateLines(t.Lines, mode)
}

// CreateTemplate stores a new, active recurring transaction template.
func (s *Service) CreateTemplate(ctx context.Context, t *models.RecurringTransaction, mode models.Mode) (*models.RecurringTransaction, error) {
	if err := validateTemplate(t, mode); err != nil {
		return nil, err
	}
	if t.ID == "" {
		t.ID = s.newID("rec")
	}
	t.Active = true
	err := s.update(ctx, func(repo *repository.Repository) error {
		if err := checkAccounts(ctx, repo, t.Lines); err != nil {
			return err
		}
		return repo.PutRecurring(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("Recurring transaction created: %s (%s)", t.Description, t.Frequency)
	return t, nil
}

// UpdateTemplate replaces a template's content. A nil LastProcessed keeps the stored marker.
func (s *Service) UpdateTemplate(ctx context.Context, t *models.RecurringTransaction, mode models.Mode) (*models.RecurringTransaction, error) {
	if err := validateTemplate(t, mode); err != nil {
		return nil, err
	}
	err := s.update(ctx, func(repo *repository.Repository) error {
		existing, err := repo.GetRecurring(ctx, t.ID)
		if err != nil {
			return notFound(err, ErrNotFound, "recurring transaction "+t.ID)
		}
		if t.LastProcessed == nil {
			t.LastProcessed = existing.LastProcessed
		}
		if err := checkAccounts(ctx, repo, t.Lines); err != nil {
			return err
		}
		return repo.PutRecurring(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// SetTemplateActive retires or revives a template.
func (s *Service) SetTemplateActive(ctx context.Context, id string, active bool) (*models.RecurringTransaction, error) {
	var t *models.RecurringTransaction
	err := s.update(ctx, func(repo *repository.Repository) error {
		var err error
		t, err = repo.GetRecurring(ctx, id)
		if err != nil {
			return notFound(err, ErrNotFound, "recurring transaction "+id)
		}
		t.Active = active
		return repo.PutRecurring(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	return s.update(ctx, func(repo *repository.Repository) error {
		return repo.DeleteRecurring(ctx, id)
	})
}

func (s *Service) GetTemplate(ctx context.Context, id string) (*models.RecurringTransaction, error) {
	var t *models.RecurringTransaction
	err := s.view(ctx, func(repo *repository.Repository) error {
		var err error
		t, err = repo.GetRecurring(ctx, id)
		return notFound(err, ErrNotFound, "recurring transaction "+id)
	})
	return t, err
}

func (s *Service) ListTemplates(ctx context.Context) ([]*models.RecurringTransaction, error) {
	var templates []*models.RecurringTransaction
	err := s.view(ctx, func(repo *repository.Repository) error {
		var err error
		templates, err = repo.ListRecurring(ctx)
		return err
	})
	return templates, err
}
