package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Dan9191/budget-ledger/internal/models"
	"github.com/Dan9191/budget-ledger/internal/service"
	"github.com/Dan9191/budget-ledger/internal/utils"
	"github.com/google/subcommands"
	"github.com/olekukonko/tablewriter"
)

type accountsCmd struct{}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list accounts and their cached balances" }
func (*accountsCmd) Usage() string {
	return `ledgerctl accounts

  Lists every account with its type and cached balance.
`
}
func (*accountsCmd) SetFlags(*flag.FlagSet) {}

func (c *accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app) error {
		accounts, err := a.svc.ListAccounts(ctx)
		if err != nil {
			return err
		}
		renderAccounts(os.Stdout, accounts, a.cfg.Currency)
		return nil
	})
}

func renderAccounts(w io.Writer, accounts []*models.Account, currency string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name", "Type", "Balance"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, acc := range accounts {
		table.Append([]string{acc.ID, acc.Name, string(acc.Type), utils.FormatAmount(acc.Balance, currency)})
	}
	table.Render()
}

type auditCmd struct {
	all bool
}

func (*auditCmd) Name() string     { return "audit" }
func (*auditCmd) Synopsis() string { return "compare cached balances with transaction history" }
func (*auditCmd) Usage() string {
	return `ledgerctl audit [-all]

  Recomputes every account balance from the transaction history and reports
  the accounts whose cached balance drifted. Nothing is written.
  Exits with a failure status when a drift is found.
`
}

func (c *auditCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "Show accounts that are in sync too")
}

func (c *auditCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	drift := false
	status := withApp(func(a *app) error {
		audits, err := a.svc.AuditAll(ctx)
		if err != nil {
			return err
		}
		drift = renderAudits(os.Stdout, audits, a.cfg.Currency, c.all)
		return nil
	})
	if status == subcommands.ExitSuccess && drift {
		return subcommands.ExitFailure
	}
	return status
}

// renderAudits prints the audit table and reports whether any account is out of sync.
func renderAudits(w io.Writer, audits []models.BalanceAudit, currency string, all bool) bool {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Account", "Cached", "Computed", "Difference", "Status"})
	drift := false
	for _, au := range audits {
		inSync := au.InSync(service.Tolerance)
		if !inSync {
			drift = true
		}
		if inSync && !all {
			continue
		}
		status := "ok"
		if !inSync {
			status = "DRIFT"
		}
		table.Append([]string{
			au.AccountID,
			utils.FormatAmount(au.Cached, currency),
			utils.FormatAmount(au.Computed, currency),
			utils.FormatAmount(au.Difference, currency),
			status,
		})
	}
	table.Render()
	if !drift {
		fmt.Fprintf(w, "%d account(s) in sync\n", len(audits))
	}
	return drift
}

type fixBalanceCmd struct{}

func (*fixBalanceCmd) Name() string     { return "fix-balance" }
func (*fixBalanceCmd) Synopsis() string { return "overwrite an account's cached balance with the recomputed one" }
func (*fixBalanceCmd) Usage() string {
	return `ledgerctl fix-balance <account-id>

  Recomputes the balance of the account from its transaction history and
  stores it as the cached balance.
`
}
func (*fixBalanceCmd) SetFlags(*flag.FlagSet) {}

func (c *fixBalanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "fix-balance requires exactly one account id")
		return subcommands.ExitUsageError
	}
	return withApp(func(a *app) error {
		au, err := a.svc.ApplyBalanceCorrection(ctx, f.Arg(0))
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s -> %s\n", au.AccountID,
			utils.FormatAmount(au.Cached, a.cfg.Currency),
			utils.FormatAmount(au.Computed, a.cfg.Currency))
		return nil
	})
}
