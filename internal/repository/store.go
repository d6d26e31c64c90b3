package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"virtual-bank/internal/domain"
	"virtual-bank/internal/errors"
)

const accountSequenceKey = "account_sequence"

// Store provides typed, owner-scoped collections on top of a Backend, with
// transaction support
type Store struct {
	backend Backend
	logger  *zap.Logger
}

// NewStore creates a new Store instance
func NewStore(backend Backend, logger *zap.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
	}
}

func (s *Store) Accounts() Collection[domain.Account] {
	return Collection[domain.Account]{store: s, prefix: "accounts_"}
}

// Records holds the bank transaction records of an owner.
func (s *Store) Records() Collection[domain.TransactionRecord] {
	return Collection[domain.TransactionRecord]{store: s, prefix: "bank_transactions_"}
}

func (s *Store) Goals() Collection[domain.Goal] {
	return Collection[domain.Goal]{store: s, prefix: "goals_"}
}

func (s *Store) Budgets() Collection[domain.Budget] {
	return Collection[domain.Budget]{store: s, prefix: "budgets_"}
}

// Entries holds the income and expense entries of an owner.
func (s *Store) Entries() Collection[domain.Entry] {
	return Collection[domain.Entry]{store: s, prefix: "transactions_"}
}

func (s *Store) Alerts() Collection[domain.BudgetAlert] {
	return Collection[domain.BudgetAlert]{store: s, prefix: "budget_alerts_"}
}

// WithTransaction executes fn with a Store bound to one backend transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(*Store) error) error {
	return s.backend.WithTransaction(ctx, func(tx Backend) error {
		return fn(&Store{backend: tx, logger: s.logger})
	})
}

// NextAccountSequence increments and returns the global account counter.
// Call it inside WithTransaction.
func (s *Store) NextAccountSequence(ctx context.Context) (int64, error) {
	payload, err := s.backend.Get(ctx, accountSequenceKey)
	if err != nil {
		return 0, s.storageError("load", accountSequenceKey, err)
	}

	var seq int64
	if payload != nil {
		if seq, err = strconv.ParseInt(string(payload), 10, 64); err != nil {
			return 0, errors.ErrCorruptData.WithDetails(fmt.Sprintf("%s: %v", accountSequenceKey, err))
		}
	}
	seq++

	if err := s.backend.Put(ctx, accountSequenceKey, []byte(strconv.FormatInt(seq, 10))); err != nil {
		return 0, s.storageError("save", accountSequenceKey, err)
	}
	return seq, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) storageError(op, key string, err error) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	s.logger.Error("Storage operation failed", zap.String("op", op), zap.String("key", key), zap.Error(err))
	return errors.Internal("failed to "+op+" "+key, err)
}

type validator interface {
	Validate() error
}

// Collection is one owner-scoped list of items stored under prefix+owner.
type Collection[T validator] struct {
	store  *Store
	prefix string
}

func (c Collection[T]) key(ownerID string) string {
	return c.prefix + ownerID
}

// Load returns the stored items, or an empty slice when nothing was saved.
// Items that fail validation make the whole collection corrupt.
func (c Collection[T]) Load(ctx context.Context, ownerID string) ([]T, error) {
	key := c.key(ownerID)
	payload, err := c.store.backend.Get(ctx, key)
	if err != nil {
		return nil, c.store.storageError("load", key, err)
	}
	if payload == nil {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(payload, &items); err != nil {
		c.store.logger.Error("Corrupt collection", zap.String("key", key), zap.Error(err))
		return nil, errors.ErrCorruptData.WithDetails(fmt.Sprintf("%s: %v", key, err))
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			c.store.logger.Error("Corrupt collection item", zap.String("key", key), zap.Int("index", i), zap.Error(err))
			return nil, errors.ErrCorruptData.WithDetails(fmt.Sprintf("%s[%d]: %v", key, i, err))
		}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c Collection[T]) Save(ctx context.Context, ownerID string, items []T) error {
	key := c.key(ownerID)
	if items == nil {
		items = []T{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return errors.Internal("failed to encode "+key, err)
	}
	if err := c.store.backend.Put(ctx, key, payload); err != nil {
		return c.store.storageError("save", key, err)
	}
	return nil
}
