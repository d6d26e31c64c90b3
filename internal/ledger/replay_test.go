package ledger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"virtual-bank/internal/domain"
)

func TestStatementAndSummary(t *testing.T) {
	env := testEnv()
	clock := fixedNow
	env.Now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	a := newAccount(t, env, "A", domain.AccountKindSavings, "1000")
	b := newAccount(t, env, "B", domain.AccountKindChecking, "0")

	var records []domain.TransactionRecord
	a, rec, err := Deposit(env, a, dec("500"), "")
	require.NoError(t, err)
	records = append(records, rec)

	a, rec, err = Withdraw(env, a, dec("200"), "")
	require.NoError(t, err)
	records = append(records, rec)

	res, err := Transfer(env, a, b, dec("300"), "", "")
	require.NoError(t, err)
	a, b = res.From, res.To
	records = append(records, res.Out, res.In)

	a, rec, err = ApplyInterest(env, a)
	require.NoError(t, err)
	records = append(records, rec)

	stmt := Statement(records, a.ID, 0)
	require.Len(t, stmt, 4)
	assert.Equal(t, domain.RecordInterest, stmt[0].Kind)
	assert.Equal(t, domain.RecordDeposit, stmt[3].Kind)

	assert.Len(t, Statement(records, a.ID, 2), 2)

	summary := Summarize(a, records)
	assert.Equal(t, 4, summary.TransactionCount)
	// 500 deposit + 3.75 interest on 1000
	assert.True(t, summary.TotalIncome.Equal(dec("503.75")), summary.TotalIncome.String())
	assert.True(t, summary.TotalExpenses.Equal(dec("500")))
	assert.True(t, summary.NetFlow.Equal(dec("3.75")))
	require.NotNil(t, summary.LastTransaction)
	assert.Equal(t, domain.RecordInterest, summary.LastTransaction.Kind)

	require.NoError(t, Reconcile(a, records))
	require.NoError(t, Reconcile(b, records))
	require.NoError(t, VerifyPairs(records))
}

func TestReplay_DetectsMismatch(t *testing.T) {
	records := []domain.TransactionRecord{
		{ID: "r1", Kind: domain.RecordDeposit, Amount: dec("10"), BalanceAfter: dec("110"), Timestamp: fixedNow, Status: domain.StatusCompleted},
		{ID: "r2", Kind: domain.RecordWithdrawal, Amount: dec("5"), BalanceAfter: dec("104"), Timestamp: fixedNow.Add(time.Second), Status: domain.StatusCompleted},
	}

	_, err := Replay(dec("100"), records)
	var mismatch *ReplayMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "r2", mismatch.RecordID)
	assert.True(t, mismatch.Expected.Equal(dec("105")))
}

func TestReplay_OrdersByTimestampAndSkipsIncomplete(t *testing.T) {
	records := []domain.TransactionRecord{
		{ID: "late", Kind: domain.RecordWithdrawal, Amount: dec("30"), BalanceAfter: dec("120"), Timestamp: fixedNow.Add(time.Hour), Status: domain.StatusCompleted},
		{ID: "failed", Kind: domain.RecordDeposit, Amount: dec("999"), BalanceAfter: dec("0"), Timestamp: fixedNow.Add(time.Minute), Status: domain.StatusFailed},
		{ID: "early", Kind: domain.RecordDeposit, Amount: dec("50"), BalanceAfter: dec("150"), Timestamp: fixedNow, Status: domain.StatusCompleted},
	}

	final, err := Replay(dec("100"), records)
	require.NoError(t, err)
	assert.True(t, final.Equal(dec("120")))
}

func TestVerifyPairs_Errors(t *testing.T) {
	out := domain.TransactionRecord{AccountID: "a", Kind: domain.RecordTransferOut, Amount: dec("10"), Reference: "ref"}
	in := domain.TransactionRecord{AccountID: "b", Kind: domain.RecordTransferIn, Amount: dec("10"), Reference: "ref"}

	assert.NoError(t, VerifyPairs([]domain.TransactionRecord{out, in}))
	assert.Error(t, VerifyPairs([]domain.TransactionRecord{out}))
	assert.Error(t, VerifyPairs([]domain.TransactionRecord{out, in, in}))

	skewed := in
	skewed.Amount = dec("11")
	assert.Error(t, VerifyPairs([]domain.TransactionRecord{out, skewed}))

	loop := in
	loop.AccountID = "a"
	assert.Error(t, VerifyPairs([]domain.TransactionRecord{out, loop}))
}

// Random operation sequences must keep every balance non-negative, keep
// transfers zero-sum and leave a log that replays to the stored balances.
func TestRandomOperations_PreserveInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(20250314))
	env := testEnv()
	clock := fixedNow
	env.Now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	kinds := []domain.AccountKind{domain.AccountKindSavings, domain.AccountKindChecking, domain.AccountKindInvestment}
	accounts := make([]domain.Account, 4)
	for i := range accounts {
		acc, err := CreateAccount(env, "owner", string(rune('A'+i)), kinds[i%3], decimal.NewFromInt(int64(rng.Intn(5000))), int64(i+1))
		require.NoError(t, err)
		accounts[i] = acc
	}

	total := func() decimal.Decimal {
		sum := decimal.Zero
		for _, a := range accounts {
			sum = sum.Add(a.Balance)
		}
		return sum
	}

	var records []domain.TransactionRecord
	for step := 0; step < 500; step++ {
		amount := decimal.NewFromInt(int64(rng.Intn(3000))).Div(decimal.NewFromInt(4))
		i := rng.Intn(len(accounts))
		before := total()

		switch rng.Intn(4) {
		case 0:
			acc, rec, err := Deposit(env, accounts[i], amount, "")
			if err == nil {
				accounts[i] = acc
				records = append(records, rec)
				assert.True(t, total().Equal(before.Add(amount)))
			}
		case 1:
			acc, rec, err := Withdraw(env, accounts[i], amount, "")
			if err == nil {
				accounts[i] = acc
				records = append(records, rec)
				assert.True(t, total().Equal(before.Sub(amount)))
			}
		case 2:
			j := rng.Intn(len(accounts))
			res, err := Transfer(env, accounts[i], accounts[j], amount, "", "")
			if err == nil {
				accounts[i], accounts[j] = res.From, res.To
				records = append(records, res.Out, res.In)
				assert.True(t, total().Equal(before), "transfers are zero-sum")
			}
		case 3:
			acc, rec, err := ApplyInterest(env, accounts[i])
			if err == nil {
				accounts[i] = acc
				records = append(records, rec)
				assert.True(t, total().Equal(before.Add(rec.Amount)))
			}
		}

		for _, a := range accounts {
			require.False(t, a.Balance.IsNegative(), "step %d: %s went negative", step, a.DisplayName)
		}
	}

	for _, a := range accounts {
		require.NoError(t, Reconcile(a, records))
	}
	require.NoError(t, VerifyPairs(records))
	for _, r := range records {
		require.NoError(t, r.Validate())
	}
}
