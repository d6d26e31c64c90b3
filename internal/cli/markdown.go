package cli

import (
	"fmt"
	"strings"

	"virtual-bank/internal/currency"
	"virtual-bank/internal/domain"
	"virtual-bank/internal/ledger"
	"virtual-bank/internal/projection"
)

func accountsMarkdown(accounts []domain.Account) string {
	var b strings.Builder
	b.WriteString("# Accounts\n\n")
	if len(accounts) == 0 {
		b.WriteString("_No accounts yet._\n")
		return b.String()
	}
	b.WriteString("| ID | Number | Name | Kind | Balance | Status |\n")
	b.WriteString("|---|---|---|---|---:|---|\n")
	for _, a := range accounts {
		status := "active"
		if !a.IsActive {
			status = "inactive"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			a.ID, a.AccountNumber, escape(a.DisplayName), a.Kind, currency.Format(a.Balance, a.Currency), status)
	}
	return b.String()
}

func statementMarkdown(account domain.Account, summary ledger.Summary, records []domain.TransactionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escape(account.DisplayName))
	fmt.Fprintf(&b, "Account **%s** (%s), balance **%s**\n\n",
		account.AccountNumber, account.Kind, currency.Format(account.Balance, account.Currency))
	fmt.Fprintf(&b, "- Income: %s\n", currency.Format(summary.TotalIncome, account.Currency))
	fmt.Fprintf(&b, "- Expenses: %s\n", currency.Format(summary.TotalExpenses, account.Currency))
	fmt.Fprintf(&b, "- Net flow: %s\n", currency.Format(summary.NetFlow, account.Currency))
	fmt.Fprintf(&b, "- Transactions: %d\n\n", summary.TransactionCount)

	if len(records) == 0 {
		b.WriteString("_No transactions._\n")
		return b.String()
	}
	b.WriteString("| Date | Kind | Description | Amount | Balance |\n")
	b.WriteString("|---|---|---|---:|---:|\n")
	for _, r := range records {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			r.Timestamp.Format("2006-01-02 15:04"), r.Kind, escape(r.Description),
			currency.Format(r.SignedAmount(), account.Currency), currency.Format(r.BalanceAfter, account.Currency))
	}
	return b.String()
}

func budgetsMarkdown(statuses []projection.BudgetStatus, velocity projection.Velocity, code string) string {
	var b strings.Builder
	b.WriteString("# Budgets this month\n\n")
	if len(statuses) == 0 {
		b.WriteString("_No budgets set._\n")
		return b.String()
	}
	b.WriteString("| Category | Limit | Spent | Remaining | Used | Status |\n")
	b.WriteString("|---|---:|---:|---:|---:|---|\n")
	for _, s := range statuses {
		name := escape(s.Category)
		if s.Icon != "" {
			name = s.Icon + " " + name
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %.0f%% | %s |\n",
			name, currency.Format(s.Limit, code), currency.Format(s.Spent, code),
			currency.Format(s.Remaining, code), s.Percentage, s.Status)
	}

	fmt.Fprintf(&b, "\nSpent **%s** of **%s**, projected **%s** by month end (%s).\n",
		currency.Format(velocity.Spent, code), currency.Format(velocity.TotalBudget, code),
		currency.Format(velocity.MonthlyProjection, code), velocity.Status)

	var alerts []string
	for _, s := range projection.ActiveAlerts(statuses) {
		alerts = append(alerts, "- "+projection.AlertMessage(s, code))
	}
	if len(alerts) > 0 {
		b.WriteString("\n## Alerts\n\n")
		b.WriteString(strings.Join(alerts, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

// escape keeps user text from breaking table cells.
func escape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
