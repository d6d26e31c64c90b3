// Package cli implements the ledgerctl subcommands over a local snapshot
// store.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"go.uber.org/zap"

	"virtual-bank/internal/config"
	"virtual-bank/internal/currency"
	"virtual-bank/internal/errors"
	"virtual-bank/internal/ledger"
	"virtual-bank/internal/observability"
	"virtual-bank/internal/repository"
	"virtual-bank/internal/service"
)

// App carries the global ledgerctl options shared by every subcommand.
type App struct {
	StorePath string
	Owner     string
	Currency  string
	LogLevel  string
	// Plain prints markdown as is instead of rendering it for the terminal.
	Plain bool

	// Config supplies flag defaults and the ledger policy. Loaded from the
	// environment when nil.
	Config *config.Config
	Out    io.Writer
	Logger *zap.Logger
	Env    *ledger.Env
}

// RegisterFlags binds the global options to fs, defaulting them from the
// environment configuration.
func (a *App) RegisterFlags(fs *flag.FlagSet) {
	cfg := a.config()
	fs.StringVar(&a.StorePath, "store", cfg.SnapshotPath, "Path to the ledger snapshot file")
	fs.StringVar(&a.Owner, "owner", cfg.LedgerOwner, "Owner id the commands act on")
	fs.StringVar(&a.Currency, "currency", cfg.DefaultCurrency, "Currency of new accounts")
	fs.StringVar(&a.LogLevel, "log-level", "error", "Log level")
	fs.BoolVar(&a.Plain, "plain", false, "Print raw markdown")
}

func (a *App) config() *config.Config {
	if a.Config == nil {
		a.Config = config.Load()
	}
	return a.Config
}

// Register adds the ledgerctl subcommands to c.
func Register(c *subcommands.Commander, app *App) {
	c.Register(&createCmd{app: app}, "accounts")
	c.Register(&accountsCmd{app: app}, "accounts")
	c.Register(&closeCmd{app: app}, "accounts")
	c.Register(&statementCmd{app: app}, "accounts")

	c.Register(&depositCmd{movementCmd{app: app}}, "transactions")
	c.Register(&withdrawCmd{movementCmd{app: app}}, "transactions")
	c.Register(&transferCmd{app: app}, "transactions")
	c.Register(&interestCmd{app: app}, "transactions")

	c.Register(&budgetCmd{app: app}, "planning")
	c.Register(&budgetsCmd{app: app}, "planning")
}

type services struct {
	accounts     *service.AccountService
	transactions *service.TransactionService
	planning     *service.PlanningService
}

// open builds the services over the snapshot file. The returned close
// function must be called when the command is done.
func (a *App) open() (*services, func(), error) {
	cfg := a.config()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := a.Logger
	if logger == nil {
		logger = observability.NewLogger(a.LogLevel)
	}

	backend, err := repository.OpenSnapshot(a.StorePath, logger)
	if err != nil {
		return nil, nil, err
	}
	store := repository.NewStore(backend, logger)

	env := ledger.DefaultEnv()
	if a.Env != nil {
		env = *a.Env
	}
	if a.Currency != "" {
		env.Currency = a.Currency
	}
	env.Limits.MaxDeposit = cfg.MaxDepositAmount

	metrics := observability.NewMetrics()
	svc := &services{
		accounts:     service.NewAccountService(store, env, metrics, logger),
		transactions: service.NewTransactionService(store, env, cfg.DailyLimitPolicy, metrics, logger),
		planning:     service.NewPlanningService(store, env, metrics, logger),
	}
	return svc, func() {
		store.Close()
		logger.Sync()
	}, nil
}

// run opens the services, calls fn and maps its error to an exit status.
func (a *App) run(fn func(*services) error) subcommands.ExitStatus {
	svc, closeFn, err := a.open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger %q: %v\n", a.StorePath, err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	if err := fn(svc); err != nil {
		if appErr, ok := errors.As(err); ok {
			fmt.Fprintf(os.Stderr, "Error: %s\n", appErr.Message)
			if appErr.Details != "" {
				fmt.Fprintf(os.Stderr, "  %s\n", appErr.Details)
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (a *App) out() io.Writer {
	if a.Out == nil {
		return os.Stdout
	}
	return a.Out
}

// printMarkdown renders md for the terminal, falling back to the raw text.
func (a *App) printMarkdown(md string) {
	if a.Plain {
		fmt.Fprint(a.out(), md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		if rendered, err := r.Render(md); err == nil {
			fmt.Fprint(a.out(), rendered)
			return
		}
	}
	fmt.Fprint(a.out(), md)
}

func (a *App) currency() string {
	if a.Currency != "" {
		return a.Currency
	}
	if a.Env != nil && a.Env.Currency != "" {
		return a.Env.Currency
	}
	return currency.Default
}
