package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"virtual-bank/internal/currency"
	"virtual-bank/internal/service"
)

type createCmd struct {
	app     *App
	name    string
	kind    string
	balance string
}

func (*createCmd) Name() string     { return "create" }
func (*createCmd) Synopsis() string { return "Open a new account." }
func (*createCmd) Usage() string {
	return `create -name <display name> [-kind checking|savings|investment] [-balance <amount>]:
  Open a new account for the owner.
`
}

func (c *createCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Display name of the account")
	f.StringVar(&c.kind, "kind", "checking", "Account kind")
	f.StringVar(&c.balance, "balance", "0", "Initial balance")
}

func (c *createCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		fmt.Fprintln(os.Stderr, "Error: -name is required")
		return subcommands.ExitUsageError
	}
	balance, ok := amountFlag("balance", c.balance)
	if !ok {
		return subcommands.ExitUsageError
	}

	return c.app.run(func(svc *services) error {
		acc, err := svc.accounts.CreateAccount(ctx, c.app.Owner, service.CreateAccountRequest{
			DisplayName:    c.name,
			Kind:           c.kind,
			InitialBalance: balance,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.app.out(), "Created %s account %s (%s) with balance %s\n",
			acc.Kind, acc.ID, acc.AccountNumber, currency.Format(acc.Balance, acc.Currency))
		return nil
	})
}

type accountsCmd struct {
	app *App
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "List the owner's accounts." }
func (*accountsCmd) Usage() string {
	return `accounts:
  List every account of the owner with its balance.
`
}

func (*accountsCmd) SetFlags(*flag.FlagSet) {}

func (c *accountsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.run(func(svc *services) error {
		accounts, err := svc.accounts.ListAccounts(ctx, c.app.Owner)
		if err != nil {
			return err
		}
		c.app.printMarkdown(accountsMarkdown(accounts))
		return nil
	})
}

type closeCmd struct {
	app     *App
	account string
}

func (*closeCmd) Name() string     { return "close" }
func (*closeCmd) Synopsis() string { return "Close an account." }
func (*closeCmd) Usage() string {
	return `close -account <id>:
  Mark the account inactive. The balance is kept.
`
}

func (c *closeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account id")
}

func (c *closeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" {
		fmt.Fprintln(os.Stderr, "Error: -account is required")
		return subcommands.ExitUsageError
	}
	return c.app.run(func(svc *services) error {
		acc, err := svc.accounts.CloseAccount(ctx, c.app.Owner, c.account)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.app.out(), "Closed account %s\n", acc.ID)
		return nil
	})
}

type statementCmd struct {
	app     *App
	account string
	limit   int
}

func (*statementCmd) Name() string     { return "statement" }
func (*statementCmd) Synopsis() string { return "Show an account statement." }
func (*statementCmd) Usage() string {
	return `statement -account <id> [-limit n]:
  Show the account summary and its transactions, newest first.
`
}

func (c *statementCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account id")
	f.IntVar(&c.limit, "limit", 50, "Maximum number of transactions, 0 for all")
}

func (c *statementCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" {
		fmt.Fprintln(os.Stderr, "Error: -account is required")
		return subcommands.ExitUsageError
	}
	return c.app.run(func(svc *services) error {
		summary, err := svc.accounts.Summary(ctx, c.app.Owner, c.account)
		if err != nil {
			return err
		}
		records, err := svc.accounts.Statement(ctx, c.app.Owner, c.account, c.limit)
		if err != nil {
			return err
		}
		c.app.printMarkdown(statementMarkdown(summary.Account, summary, records))
		return nil
	})
}
