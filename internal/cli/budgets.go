package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"virtual-bank/internal/currency"
	"virtual-bank/internal/domain"
)

type budgetCmd struct {
	app      *App
	category string
	limit    string
	icon     string
	remove   bool
}

func (*budgetCmd) Name() string     { return "budget" }
func (*budgetCmd) Synopsis() string { return "Set or remove a monthly category budget." }
func (*budgetCmd) Usage() string {
	return `budget -category <name> -limit <amount> [-icon <emoji>]
budget -category <name> -remove:
  Set, replace or remove the monthly budget of one category. Other
  budgets are left as they are.
`
}

func (c *budgetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.category, "category", "", "Budget category")
	f.StringVar(&c.limit, "limit", "", "Monthly limit")
	f.StringVar(&c.icon, "icon", "", "Optional icon")
	f.BoolVar(&c.remove, "remove", false, "Remove the category budget")
}

func (c *budgetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	category := strings.TrimSpace(c.category)
	if category == "" {
		fmt.Fprintln(os.Stderr, "Error: -category is required")
		return subcommands.ExitUsageError
	}
	budget := domain.Budget{Category: category, Icon: c.icon}
	if !c.remove {
		limit, ok := amountFlag("limit", c.limit)
		if !ok {
			return subcommands.ExitUsageError
		}
		budget.Limit = limit
	}

	return c.app.run(func(svc *services) error {
		existing, err := svc.planning.ListBudgets(ctx, c.app.Owner)
		if err != nil {
			return err
		}
		budgets := make([]domain.Budget, 0, len(existing)+1)
		for _, b := range existing {
			if !strings.EqualFold(b.Category, category) {
				budgets = append(budgets, b)
			}
		}
		if !c.remove {
			budgets = append(budgets, budget)
		}
		if _, err := svc.planning.SetBudgets(ctx, c.app.Owner, budgets); err != nil {
			return err
		}
		if c.remove {
			fmt.Fprintf(c.app.out(), "Removed budget %s\n", category)
		} else {
			fmt.Fprintf(c.app.out(), "Budget %s set to %s\n", category, currency.Format(budget.Limit, c.app.currency()))
		}
		return nil
	})
}

type budgetsCmd struct {
	app    *App
	alerts bool
}

func (*budgetsCmd) Name() string     { return "budgets" }
func (*budgetsCmd) Synopsis() string { return "Show this month's budget status." }
func (*budgetsCmd) Usage() string {
	return `budgets [-record-alerts]:
  Show spending against each budget this month, the projected month end
  total and any active alerts.
`
}

func (c *budgetsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.alerts, "record-alerts", false, "Also append the active alerts to the alert history")
}

func (c *budgetsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.run(func(svc *services) error {
		statuses, err := svc.planning.BudgetStatus(ctx, c.app.Owner)
		if err != nil {
			return err
		}
		velocity, err := svc.planning.Velocity(ctx, c.app.Owner)
		if err != nil {
			return err
		}
		if c.alerts {
			if _, err := svc.planning.BudgetAlerts(ctx, c.app.Owner); err != nil {
				return err
			}
		}
		c.app.printMarkdown(budgetsMarkdown(statuses, velocity, c.app.currency()))
		return nil
	})
}
