package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Dan9191/budget-ledger/internal/models"
	"github.com/google/subcommands"
)

type processDueCmd struct {
	asOf string
	mode string
}

func (*processDueCmd) Name() string     { return "process-due" }
func (*processDueCmd) Synopsis() string { return "materialize recurring transactions that are due" }
func (*processDueCmd) Usage() string {
	return `ledgerctl process-due [-as-of <date>] [-mode double|simple]

  Creates a transaction for every active recurring template due on the given
  date (default today). Running it twice for the same date creates nothing new.
`
}

func (c *processDueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.asOf, "as-of", "", "Processing date (YYYY-MM-DD), defaults to today")
	f.StringVar(&c.mode, "mode", "", "Ledger mode, defaults to LEDGER_MODE")
}

func (c *processDueCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	asOf := models.Today()
	if c.asOf != "" {
		d, err := models.ParseDate(c.asOf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
		asOf = d
	}

	return withApp(func(a *app) error {
		mode := a.cfg.Mode
		if c.mode != "" {
			m, err := models.ParseMode(c.mode)
			if err != nil {
				return err
			}
			mode = m
		}
		report, err := a.svc.ProcessDue(ctx, asOf, mode)
		if err != nil {
			return err
		}
		for _, p := range report.Processed {
			fmt.Printf("created %s from %s\n", p.TransactionID, p.TemplateID)
		}
		for _, f := range report.Failures {
			fmt.Fprintf(os.Stderr, "failed %s: %s\n", f.TemplateID, f.Error)
		}
		fmt.Printf("%d created, %d failed as of %s\n", len(report.Processed), len(report.Failures), asOf)
		if len(report.Failures) > 0 {
			return fmt.Errorf("%d recurring transaction(s) failed", len(report.Failures))
		}
		return nil
	})
}
