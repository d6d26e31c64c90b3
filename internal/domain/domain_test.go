package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountKind(t *testing.T) {
	kind, err := ParseAccountKind(" Savings ")
	require.NoError(t, err)
	assert.Equal(t, AccountKindSavings, kind)
	assert.True(t, kind.InterestRate().Equal(decimal.RequireFromString("4.5")))

	_, err = ParseAccountKind("brokerage")
	assert.Error(t, err)
}

func TestDecodeRejectsUnknownEnums(t *testing.T) {
	var acc Account
	err := json.Unmarshal([]byte(`{"id":"a","account_kind":"crypto"}`), &acc)
	assert.Error(t, err)

	var rec TransactionRecord
	err = json.Unmarshal([]byte(`{"id":"r","kind":"refund","status":"completed"}`), &rec)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"id":"r","kind":"deposit","status":"reversed"}`), &rec)
	assert.Error(t, err)

	var entry Entry
	err = json.Unmarshal([]byte(`{"id":"e","type":"gift"}`), &entry)
	assert.Error(t, err)

	var goal Goal
	err = json.Unmarshal([]byte(`{"id":"g","status":"paused"}`), &goal)
	assert.Error(t, err)
}

func TestTransactionRecordValidate(t *testing.T) {
	valid := TransactionRecord{
		ID:           "r1",
		AccountID:    "a1",
		Kind:         RecordTransferOut,
		Amount:       decimal.NewFromInt(10),
		Timestamp:    time.Now(),
		BalanceAfter: decimal.NewFromInt(5),
		Reference:    "ref",
		Status:       StatusCompleted,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(r *TransactionRecord)
	}{
		{"zero amount", func(r *TransactionRecord) { r.Amount = decimal.Zero }},
		{"negative balance", func(r *TransactionRecord) { r.BalanceAfter = decimal.NewFromInt(-1) }},
		{"transfer without reference", func(r *TransactionRecord) { r.Reference = "" }},
		{"deposit with reference", func(r *TransactionRecord) { r.Kind = RecordDeposit }},
		{"missing timestamp", func(r *TransactionRecord) { r.Timestamp = time.Time{} }},
		{"missing kind", func(r *TransactionRecord) { r.Kind = "" }},
		{"unknown kind", func(r *TransactionRecord) { r.Kind = "refund" }},
		{"missing status", func(r *TransactionRecord) { r.Status = "" }},
		{"unknown status", func(r *TransactionRecord) { r.Status = "reversed" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			assert.Error(t, r.Validate())
		})
	}
}

func TestValidateCatchesOmittedEnums(t *testing.T) {
	// Text hooks never run for absent fields, so decoding alone lets these through.
	var r TransactionRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":"r1","account_id":"a1","amount":"5","balance_after":"5","timestamp":"2025-03-14T09:00:00Z"}`), &r))
	assert.Error(t, r.Validate())

	var a Account
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a1","display_name":"Main","balance":"10","opening_balance":"10","daily_transfer_limit":"100000","created_at":"2025-03-14T09:00:00Z"}`), &a))
	assert.Error(t, a.Validate())
}

func TestSignedAmount(t *testing.T) {
	amount := decimal.NewFromInt(7)
	for _, k := range []RecordKind{RecordDeposit, RecordTransferIn, RecordInterest} {
		assert.True(t, TransactionRecord{Kind: k, Amount: amount}.SignedAmount().Equal(amount), k)
	}
	for _, k := range []RecordKind{RecordWithdrawal, RecordTransferOut} {
		assert.True(t, TransactionRecord{Kind: k, Amount: amount}.SignedAmount().Equal(amount.Neg()), k)
	}
}

func TestAccountValidate(t *testing.T) {
	acc := Account{
		ID:                 "a1",
		DisplayName:        "Main",
		Kind:               AccountKindChecking,
		Balance:            decimal.NewFromInt(10),
		InterestRate:       decimal.RequireFromString("0.5"),
		DailyTransferLimit: decimal.NewFromInt(100000),
		CreatedAt:          time.Now(),
	}
	require.NoError(t, acc.Validate())

	noKind := acc
	noKind.Kind = ""
	assert.Error(t, noKind.Validate())

	wrongRate := acc
	wrongRate.InterestRate = decimal.NewFromInt(7)
	assert.Error(t, wrongRate.Validate())

	// 0.50 and 0.5 are the same rate
	padded := acc
	padded.InterestRate = decimal.RequireFromString("0.50")
	assert.NoError(t, padded.Validate())

	negative := acc
	negative.Balance = decimal.NewFromInt(-1)
	assert.Error(t, negative.Validate())

	noLimit := acc
	noLimit.DailyTransferLimit = decimal.Zero
	assert.Error(t, noLimit.Validate())

	assert.Equal(t, 0, FindAccount([]Account{acc}, "a1"))
	assert.Equal(t, -1, FindAccount([]Account{acc}, "zz"))
}
