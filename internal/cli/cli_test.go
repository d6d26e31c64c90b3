package cli

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"virtual-bank/internal/config"
	"virtual-bank/internal/domain"
	"virtual-bank/internal/ledger"
	"virtual-bank/internal/projection"
)

type harness struct {
	app *App
	out *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	var seq int
	env := ledger.DefaultEnv()
	env.Now = func() time.Time { return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC) }
	env.NewID = func() string {
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}

	cfg := config.Load()
	cfg.StorageBackend = config.BackendSnapshot
	cfg.DailyLimitPolicy = config.PolicyPerTransaction
	cfg.MaxDepositAmount = decimal.Zero

	out := &bytes.Buffer{}
	return &harness{
		app: &App{
			Config:    cfg,
			StorePath: filepath.Join(t.TempDir(), "ledger.json"),
			Owner:     "cli-user",
			Currency:  "USD",
			Plain:     true,
			Out:       out,
			Logger:    zap.NewNop(),
			Env:       &env,
		},
		out: out,
	}
}

func (h *harness) run(args ...string) subcommands.ExitStatus {
	fs := flag.NewFlagSet("ledgerctl", flag.ContinueOnError)
	commander := subcommands.NewCommander(fs, "ledgerctl")
	Register(commander, h.app)
	if err := fs.Parse(args); err != nil {
		return subcommands.ExitUsageError
	}
	h.out.Reset()
	return commander.Execute(context.Background())
}

func TestCommandsRoundTripThroughSnapshot(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, subcommands.ExitSuccess, h.run("create", "-name", "Main", "-balance", "100"))
	assert.Contains(t, h.out.String(), "Created checking account id-001")

	require.Equal(t, subcommands.ExitSuccess, h.run("create", "-name", "Rainy day", "-kind", "savings"))
	require.Equal(t, subcommands.ExitSuccess, h.run("deposit", "-account", "id-001", "-amount", "50.5", "-desc", "salary"))
	assert.Contains(t, h.out.String(), "$150.50")

	require.Equal(t, subcommands.ExitSuccess, h.run("withdraw", "-account", "id-001", "-amount", "20"))
	assert.Contains(t, h.out.String(), "$130.50")

	require.Equal(t, subcommands.ExitSuccess, h.run("transfer", "-from", "id-001", "-to", "id-002", "-amount", "30"))
	assert.Contains(t, h.out.String(), "Main now $100.50")

	require.Equal(t, subcommands.ExitSuccess, h.run("accounts"))
	assert.Contains(t, h.out.String(), "| Rainy day |")
	assert.Contains(t, h.out.String(), "$30.00")

	require.Equal(t, subcommands.ExitSuccess, h.run("statement", "-account", "id-001"))
	out := h.out.String()
	assert.Contains(t, out, "# Main")
	assert.Contains(t, out, "salary")
	assert.Contains(t, out, "transfer_out")

	assert.Equal(t, subcommands.ExitFailure, h.run("close", "-account", "id-002"))
	require.Equal(t, subcommands.ExitSuccess, h.run("withdraw", "-account", "id-002", "-amount", "30"))
	require.Equal(t, subcommands.ExitSuccess, h.run("close", "-account", "id-002"))
	assert.Equal(t, subcommands.ExitFailure, h.run("deposit", "-account", "id-002", "-amount", "1"))
}

func TestCommandErrors(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, subcommands.ExitUsageError, h.run("create"))
	assert.Equal(t, subcommands.ExitUsageError, h.run("deposit", "-account", "x", "-amount", "lots"))
	assert.Equal(t, subcommands.ExitFailure, h.run("deposit", "-account", "missing", "-amount", "5"))
	assert.Equal(t, subcommands.ExitUsageError, h.run("transfer", "-from", "a"))
}

func TestLedgerPolicyComesFromConfig(t *testing.T) {
	h := newHarness(t)
	h.app.Config.MaxDepositAmount = decimal.NewFromInt(100)
	h.app.Config.DailyLimitPolicy = config.PolicyCumulative

	require.Equal(t, subcommands.ExitSuccess, h.run("create", "-name", "Main", "-balance", "200000"))
	require.Equal(t, subcommands.ExitSuccess, h.run("create", "-name", "Other"))

	assert.Equal(t, subcommands.ExitFailure, h.run("deposit", "-account", "id-001", "-amount", "150"))
	assert.Equal(t, subcommands.ExitSuccess, h.run("deposit", "-account", "id-001", "-amount", "100"))

	require.Equal(t, subcommands.ExitSuccess, h.run("transfer", "-from", "id-001", "-to", "id-002", "-amount", "60000"))
	assert.Equal(t, subcommands.ExitFailure, h.run("transfer", "-from", "id-001", "-to", "id-002", "-amount", "60000"))

	// the default per-transaction policy only checks each transfer alone
	plain := newHarness(t)
	require.Equal(t, subcommands.ExitSuccess, plain.run("create", "-name", "Main", "-balance", "200000"))
	require.Equal(t, subcommands.ExitSuccess, plain.run("create", "-name", "Other"))
	require.Equal(t, subcommands.ExitSuccess, plain.run("deposit", "-account", "id-001", "-amount", "150"))
	require.Equal(t, subcommands.ExitSuccess, plain.run("transfer", "-from", "id-001", "-to", "id-002", "-amount", "60000"))
	assert.Equal(t, subcommands.ExitSuccess, plain.run("transfer", "-from", "id-001", "-to", "id-002", "-amount", "60000"))
}

func TestRegisterFlagsDefaultsFromConfig(t *testing.T) {
	app := &App{Config: &config.Config{SnapshotPath: "/tmp/ledger.json", LedgerOwner: "alice", DefaultCurrency: "EUR"}}
	fs := flag.NewFlagSet("ledgerctl", flag.ContinueOnError)
	app.RegisterFlags(fs)
	require.NoError(t, fs.Parse(nil))

	assert.Equal(t, "/tmp/ledger.json", app.StorePath)
	assert.Equal(t, "alice", app.Owner)
	assert.Equal(t, "EUR", app.Currency)
}

func TestBudgetCommands(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, subcommands.ExitSuccess, h.run("create", "-name", "Main", "-balance", "1000"))
	require.Equal(t, subcommands.ExitSuccess, h.run("budget", "-category", "Virtual Bank", "-limit", "500"))
	require.Equal(t, subcommands.ExitSuccess, h.run("budget", "-category", "Travel", "-limit", "100"))
	require.Equal(t, subcommands.ExitSuccess, h.run("budget", "-category", "Travel", "-remove"))
	require.Equal(t, subcommands.ExitSuccess, h.run("withdraw", "-account", "id-001", "-amount", "400"))

	require.Equal(t, subcommands.ExitSuccess, h.run("budgets", "-record-alerts"))
	out := h.out.String()
	assert.Contains(t, out, "| Virtual Bank |")
	assert.Contains(t, out, "80%")
	assert.NotContains(t, out, "Travel")
	assert.Contains(t, out, "## Alerts")
}

func TestBudgetsMarkdown(t *testing.T) {
	statuses := []projection.BudgetStatus{
		projection.CheckBudgetStatus("Food", decimal.NewFromInt(1000), decimal.NewFromInt(200)),
	}
	md := budgetsMarkdown(statuses, projection.Velocity{Status: projection.StatusHealthy}, "USD")
	assert.Contains(t, md, "| Food | $1,000.00 | $200.00 | $800.00 | 20% | healthy |")
	assert.NotContains(t, md, "## Alerts")

	assert.Contains(t, budgetsMarkdown(nil, projection.Velocity{}, "USD"), "No budgets set")
}

func TestMarkdownEscapesPipes(t *testing.T) {
	md := accountsMarkdown([]domain.Account{{
		ID:          "a",
		DisplayName: "Home | Away",
		Kind:        domain.AccountKindChecking,
		Balance:     decimal.NewFromInt(5),
		Currency:    "USD",
		IsActive:    true,
	}})
	assert.Contains(t, md, `Home \| Away`)
	assert.Contains(t, md, "$5.00")
}
