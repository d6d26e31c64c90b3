package repository

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"virtual-bank/internal/domain"
	"virtual-bank/internal/errors"
)

func testAccount(id string, balance int64) domain.Account {
	return domain.Account{
		ID:                 id,
		OwnerID:            "u1",
		DisplayName:        "Account " + id,
		Kind:               domain.AccountKindChecking,
		Balance:            decimal.NewFromInt(balance),
		OpeningBalance:     decimal.NewFromInt(balance),
		Currency:           "INR",
		InterestRate:       decimal.RequireFromString("0.5"),
		DailyTransferLimit: decimal.NewFromInt(100000),
		IsActive:           true,
		CreatedAt:          time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func newTestStore(t *testing.T, path string) *Store {
	t.Helper()
	backend, err := OpenSnapshot(path, zap.NewNop())
	require.NoError(t, err)
	return NewStore(backend, zap.NewNop())
}

func TestStore_LoadMissingCollectionIsEmpty(t *testing.T) {
	store := newTestStore(t, "")

	accounts, err := store.Accounts().Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, accounts)
	assert.Empty(t, accounts)
}

func TestStore_SaveAndReloadFromFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "ledger.json")

	store := newTestStore(t, path)
	require.NoError(t, store.Accounts().Save(ctx, "u1", []domain.Account{testAccount("a1", 100)}))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")

	reopened := newTestStore(t, path)
	accounts, err := reopened.Accounts().Load(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "a1", accounts[0].ID)
	assert.True(t, accounts[0].Balance.Equal(decimal.NewFromInt(100)))

	other, err := reopened.Accounts().Load(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_TransactionCommitsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")
	store := newTestStore(t, path)
	require.NoError(t, store.Accounts().Save(ctx, "u1", []domain.Account{testAccount("a1", 100)}))

	boom := stderrors.New("boom")
	err := store.WithTransaction(ctx, func(tx *Store) error {
		if err := tx.Accounts().Save(ctx, "u1", []domain.Account{testAccount("a1", 0)}); err != nil {
			return err
		}
		// the transaction sees its own write
		staged, err := tx.Accounts().Load(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, staged[0].Balance.IsZero())
		return boom
	})
	assert.ErrorIs(t, err, boom)

	accounts, err := store.Accounts().Load(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, accounts[0].Balance.Equal(decimal.NewFromInt(100)))

	err = store.WithTransaction(ctx, func(tx *Store) error {
		if err := tx.Accounts().Save(ctx, "u1", []domain.Account{testAccount("a1", 60), testAccount("a2", 40)}); err != nil {
			return err
		}
		return tx.Goals().Save(ctx, "u1", nil)
	})
	require.NoError(t, err)

	reopened := newTestStore(t, path)
	accounts, err = reopened.Accounts().Load(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestStore_CorruptCollection(t *testing.T) {
	ctx := context.Background()
	backend, err := OpenSnapshot("", zap.NewNop())
	require.NoError(t, err)
	store := NewStore(backend, zap.NewNop())

	require.NoError(t, backend.Put(ctx, "accounts_u1", []byte(`{"not":"a list"}`)))
	_, err = store.Accounts().Load(ctx, "u1")
	assert.ErrorIs(t, err, errors.ErrCorruptData)

	bad := testAccount("a1", 10)
	bad.Balance = decimal.NewFromInt(-5)
	require.NoError(t, store.Accounts().Save(ctx, "u2", []domain.Account{bad}))
	_, err = store.Accounts().Load(ctx, "u2")
	assert.ErrorIs(t, err, errors.ErrCorruptData)

	require.NoError(t, backend.Put(ctx, "bank_transactions_u3", []byte(`[{"id":"r1","kind":"refund"}]`)))
	_, err = store.Records().Load(ctx, "u3")
	assert.ErrorIs(t, err, errors.ErrCorruptData)

	// well-formed JSON that simply omits the enum fields
	require.NoError(t, backend.Put(ctx, "bank_transactions_u4", []byte(`[{"id":"r1","account_id":"a1","amount":"5","balance_after":"5","timestamp":"2025-03-14T09:00:00Z"}]`)))
	_, err = store.Records().Load(ctx, "u4")
	assert.ErrorIs(t, err, errors.ErrCorruptData)

	require.NoError(t, backend.Put(ctx, "accounts_u5", []byte(`[{"id":"a1","display_name":"Main","balance":"10","opening_balance":"10","daily_transfer_limit":"100000","created_at":"2025-03-14T09:00:00Z"}]`)))
	_, err = store.Accounts().Load(ctx, "u5")
	assert.ErrorIs(t, err, errors.ErrCorruptData)

	mismatched := testAccount("a1", 10)
	mismatched.InterestRate = decimal.NewFromInt(7)
	require.NoError(t, store.Accounts().Save(ctx, "u6", []domain.Account{mismatched}))
	_, err = store.Accounts().Load(ctx, "u6")
	assert.ErrorIs(t, err, errors.ErrCorruptData)
}

func TestStore_CorruptSnapshotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	_, err := OpenSnapshot(path, zap.NewNop())
	assert.ErrorIs(t, err, errors.ErrCorruptData)
}

func TestStore_NextAccountSequence(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "")

	var got []int64
	for i := 0; i < 3; i++ {
		err := store.WithTransaction(ctx, func(tx *Store) error {
			seq, err := tx.NextAccountSequence(ctx)
			got = append(got, seq)
			return err
		})
		require.NoError(t, err)
	}
	assert.Equal(t, []int64{1, 2, 3}, got)
}
