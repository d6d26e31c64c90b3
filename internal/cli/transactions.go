package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"virtual-bank/internal/currency"
	"virtual-bank/internal/service"
)

// movementCmd implements both deposit and withdraw.
type movementCmd struct {
	app         *App
	account     string
	amount      string
	description string
}

func (c *movementCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account id")
	f.StringVar(&c.amount, "amount", "", "Amount")
	f.StringVar(&c.description, "desc", "", "Description")
}

func (c *movementCmd) execute(verb string, op func(*services, decimal.Decimal) (service.Movement, error)) subcommands.ExitStatus {
	if c.account == "" {
		fmt.Fprintln(os.Stderr, "Error: -account is required")
		return subcommands.ExitUsageError
	}
	amount, ok := amountFlag("amount", c.amount)
	if !ok {
		return subcommands.ExitUsageError
	}
	return c.app.run(func(svc *services) error {
		m, err := op(svc, amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.app.out(), "%s %s, new balance %s\n", verb,
			currency.Format(m.Record.Amount, m.Account.Currency), currency.Format(m.Account.Balance, m.Account.Currency))
		return nil
	})
}

type depositCmd struct{ movementCmd }

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "Deposit money into an account." }
func (*depositCmd) Usage() string {
	return `deposit -account <id> -amount <amount> [-desc <text>]:
  Credit the account.
`
}

func (c *depositCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.execute("Deposited", func(svc *services, amount decimal.Decimal) (service.Movement, error) {
		return svc.transactions.Deposit(ctx, c.app.Owner, c.account, amount, c.description)
	})
}

type withdrawCmd struct{ movementCmd }

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "Withdraw money from an account." }
func (*withdrawCmd) Usage() string {
	return `withdraw -account <id> -amount <amount> [-desc <text>]:
  Debit the account.
`
}

func (c *withdrawCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.execute("Withdrew", func(svc *services, amount decimal.Decimal) (service.Movement, error) {
		return svc.transactions.Withdraw(ctx, c.app.Owner, c.account, amount, c.description)
	})
}

type transferCmd struct {
	app         *App
	from        string
	to          string
	amount      string
	description string
	key         string
}

func (*transferCmd) Name() string     { return "transfer" }
func (*transferCmd) Synopsis() string { return "Move money between two accounts." }
func (*transferCmd) Usage() string {
	return `transfer -from <id> -to <id> -amount <amount> [-desc <text>] [-key <uuid>]:
  Transfer between two of the owner's accounts. Repeating a transfer with
  the same -key returns the original result.
`
}

func (c *transferCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "Source account id")
	f.StringVar(&c.to, "to", "", "Destination account id")
	f.StringVar(&c.amount, "amount", "", "Amount")
	f.StringVar(&c.description, "desc", "", "Description")
	f.StringVar(&c.key, "key", "", "Idempotency key (uuid)")
}

func (c *transferCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.from == "" || c.to == "" {
		fmt.Fprintln(os.Stderr, "Error: -from and -to are required")
		return subcommands.ExitUsageError
	}
	amount, ok := amountFlag("amount", c.amount)
	if !ok {
		return subcommands.ExitUsageError
	}
	return c.app.run(func(svc *services) error {
		out, err := svc.transactions.Transfer(ctx, c.app.Owner, service.TransferRequest{
			FromAccountID:  c.from,
			ToAccountID:    c.to,
			Amount:         amount,
			Description:    c.description,
			IdempotencyKey: c.key,
		})
		if err != nil {
			return err
		}
		code := out.From.Currency
		if out.Replayed {
			fmt.Fprintf(c.app.out(), "Transfer %s was already applied\n", out.Out.Reference)
		}
		fmt.Fprintf(c.app.out(), "Transferred %s: %s now %s, %s now %s\n",
			currency.Format(out.Out.Amount, code),
			out.From.DisplayName, currency.Format(out.From.Balance, code),
			out.To.DisplayName, currency.Format(out.To.Balance, out.To.Currency))
		return nil
	})
}

type interestCmd struct {
	app     *App
	account string
}

func (*interestCmd) Name() string     { return "interest" }
func (*interestCmd) Synopsis() string { return "Credit monthly interest." }
func (*interestCmd) Usage() string {
	return `interest [-account <id>]:
  Credit one month of interest to the account, or to every active
  account of the owner when -account is omitted.
`
}

func (c *interestCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account id")
}

func (c *interestCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.run(func(svc *services) error {
		if c.account != "" {
			m, err := svc.transactions.ApplyInterest(ctx, c.app.Owner, c.account)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.app.out(), "Credited %s interest to %s\n",
				currency.Format(m.Record.Amount, m.Account.Currency), m.Account.DisplayName)
			return nil
		}

		run, err := svc.transactions.ApplyMonthlyInterest(ctx, c.app.Owner)
		if err != nil {
			return err
		}
		for _, m := range run.Credited {
			fmt.Fprintf(c.app.out(), "Credited %s interest to %s\n",
				currency.Format(m.Record.Amount, m.Account.Currency), m.Account.DisplayName)
		}
		if len(run.Skipped) > 0 {
			fmt.Fprintf(c.app.out(), "Skipped %d account(s) with nothing to accrue\n", len(run.Skipped))
		}
		return nil
	})
}

func amountFlag(name, value string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid -%s %q\n", name, value)
		return decimal.Zero, false
	}
	return d, true
}
