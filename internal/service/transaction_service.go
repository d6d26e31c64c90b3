package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"virtual-bank/internal/config"
	"virtual-bank/internal/domain"
	"virtual-bank/internal/errors"
	"virtual-bank/internal/ledger"
	"virtual-bank/internal/observability"
	"virtual-bank/internal/repository"
)

type TransactionService struct {
	store     *repository.Store
	env       ledger.Env
	limitRule string
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewTransactionService creates the service. dailyLimitPolicy is one of
// config.PolicyPerTransaction or config.PolicyCumulative.
func NewTransactionService(store *repository.Store, env ledger.Env, dailyLimitPolicy string, metrics *observability.Metrics, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		store:     store,
		env:       env,
		limitRule: dailyLimitPolicy,
		metrics:   metrics,
		logger:    logger,
	}
}

// Movement is the account after a single-account operation together with
// the record it produced.
type Movement struct {
	Account domain.Account           `json:"account"`
	Record  domain.TransactionRecord `json:"transaction"`
}

type TransferRequest struct {
	FromAccountID  string
	ToAccountID    string
	Amount         decimal.Decimal
	Description    string
	IdempotencyKey string
}

type TransferOutcome struct {
	ledger.TransferResult
	// Replayed is set when the idempotency key matched an earlier transfer.
	Replayed bool `json:"replayed"`
}

// InterestRun lists the accounts credited by a monthly interest run and the
// ones skipped because nothing accrued.
type InterestRun struct {
	Credited []Movement `json:"credited"`
	Skipped  []string   `json:"skipped"`
}

func (s *TransactionService) Deposit(ctx context.Context, ownerID, accountID string, amount decimal.Decimal, description string) (Movement, error) {
	return s.single(ctx, "deposit", ownerID, accountID, func(a domain.Account) (domain.Account, domain.TransactionRecord, error) {
		return ledger.Deposit(s.env, a, amount, description)
	})
}

func (s *TransactionService) Withdraw(ctx context.Context, ownerID, accountID string, amount decimal.Decimal, description string) (Movement, error) {
	return s.single(ctx, "withdraw", ownerID, accountID, func(a domain.Account) (domain.Account, domain.TransactionRecord, error) {
		return ledger.Withdraw(s.env, a, amount, description)
	})
}

func (s *TransactionService) ApplyInterest(ctx context.Context, ownerID, accountID string) (Movement, error) {
	return s.single(ctx, "apply_interest", ownerID, accountID, func(a domain.Account) (domain.Account, domain.TransactionRecord, error) {
		return ledger.ApplyInterest(s.env, a)
	})
}

// single loads the account, applies op and stores the account with the new
// record in one transaction.
func (s *TransactionService) single(ctx context.Context, op, ownerID, accountID string,
	apply func(domain.Account) (domain.Account, domain.TransactionRecord, error)) (m Movement, err error) {
	ctx, span := tracer.Start(ctx, "TransactionService."+op)
	defer span.End()
	span.SetAttributes(attribute.String("user.id", ownerID), attribute.String("account.id", accountID))
	defer func(start time.Time) {
		finish(span, s.metrics, s.logger, op, start, err,
			zap.String("user_id", ownerID), zap.String("account_id", accountID), zap.String("record_id", m.Record.ID))
	}(time.Now())

	if err := requireOwner(ownerID); err != nil {
		return Movement{}, err
	}

	err = s.store.WithTransaction(ctx, func(tx *repository.Store) error {
		accounts, err := tx.Accounts().Load(ctx, ownerID)
		if err != nil {
			return err
		}
		i := domain.FindAccount(accounts, accountID)
		if i < 0 {
			return errors.ErrAccountNotFound.WithDetails(accountID)
		}
		records, err := tx.Records().Load(ctx, ownerID)
		if err != nil {
			return err
		}

		account, record, err := apply(accounts[i])
		if err != nil {
			return err
		}
		accounts[i] = account
		if err := tx.Accounts().Save(ctx, ownerID, accounts); err != nil {
			return err
		}
		m = Movement{Account: account, Record: record}
		return tx.Records().Save(ctx, ownerID, append(records, record))
	})
	if err != nil {
		return Movement{}, err
	}
	return m, nil
}

// Transfer moves money between two accounts of the same owner. A non-empty
// idempotency key must be a UUID; it becomes the pair reference, and a
// repeated request with the same key returns the stored pair instead of
// moving money again.
func (s *TransactionService) Transfer(ctx context.Context, ownerID string, req TransferRequest) (out TransferOutcome, err error) {
	ctx, span := tracer.Start(ctx, "TransactionService.Transfer")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", ownerID),
		attribute.String("account.from", req.FromAccountID),
		attribute.String("account.to", req.ToAccountID),
	)
	defer func(start time.Time) {
		finish(span, s.metrics, s.logger, "transfer", start, err,
			zap.String("user_id", ownerID),
			zap.String("from_account_id", req.FromAccountID),
			zap.String("to_account_id", req.ToAccountID),
			zap.String("amount", req.Amount.String()),
			zap.String("reference", out.Out.Reference),
			zap.Bool("replayed", out.Replayed))
	}(time.Now())

	if err := requireOwner(ownerID); err != nil {
		return TransferOutcome{}, err
	}
	if req.IdempotencyKey != "" {
		if _, err := uuid.Parse(req.IdempotencyKey); err != nil {
			return TransferOutcome{}, errors.ErrInvalidInput.WithDetails("idempotency_key must be a UUID")
		}
	}

	err = s.store.WithTransaction(ctx, func(tx *repository.Store) error {
		accounts, err := tx.Accounts().Load(ctx, ownerID)
		if err != nil {
			return err
		}
		records, err := tx.Records().Load(ctx, ownerID)
		if err != nil {
			return err
		}

		fi := domain.FindAccount(accounts, req.FromAccountID)
		if fi < 0 {
			return errors.ErrAccountNotFound.WithDetails(req.FromAccountID)
		}
		ti := domain.FindAccount(accounts, req.ToAccountID)
		if ti < 0 {
			return errors.ErrAccountNotFound.WithDetails(req.ToAccountID)
		}

		if req.IdempotencyKey != "" {
			replay, found, err := findTransfer(records, accounts[fi], accounts[ti], req)
			if err != nil || found {
				out = replay
				return err
			}
		}

		result, err := ledger.Transfer(s.env, accounts[fi], accounts[ti], req.Amount, req.Description, req.IdempotencyKey)
		if err != nil {
			return err
		}
		if s.limitRule == config.PolicyCumulative {
			check := ledger.CheckDailyTransferLimit(accounts[fi], records, req.Amount, s.env.Now())
			if !check.Allowed {
				return errors.ErrDailyLimitExceeded.WithDetails(check.Message)
			}
		}

		accounts[fi] = result.From
		accounts[ti] = result.To
		if err := tx.Accounts().Save(ctx, ownerID, accounts); err != nil {
			return err
		}
		if err := tx.Records().Save(ctx, ownerID, append(records, result.Out, result.In)); err != nil {
			return err
		}
		out = TransferOutcome{TransferResult: result}
		return nil
	})
	if err != nil {
		return TransferOutcome{}, err
	}
	return out, nil
}

// findTransfer looks up the pair stored under the request's idempotency key.
// A pair for different accounts or a different amount is a conflict.
func findTransfer(records []domain.TransactionRecord, from, to domain.Account, req TransferRequest) (TransferOutcome, bool, error) {
	var outRec, inRec *domain.TransactionRecord
	for i := range records {
		if records[i].Reference != req.IdempotencyKey {
			continue
		}
		switch records[i].Kind {
		case domain.RecordTransferOut:
			outRec = &records[i]
		case domain.RecordTransferIn:
			inRec = &records[i]
		}
	}
	if outRec == nil || inRec == nil {
		return TransferOutcome{}, false, nil
	}
	if outRec.AccountID != from.ID || inRec.AccountID != to.ID || !outRec.Amount.Equal(req.Amount) {
		return TransferOutcome{}, false, errors.ErrConflictingTransfer.WithDetails(req.IdempotencyKey)
	}
	return TransferOutcome{
		TransferResult: ledger.TransferResult{From: from, To: to, Out: *outRec, In: *inRec},
		Replayed:       true,
	}, true, nil
}

// ApplyMonthlyInterest credits one month of interest to every account of the
// owner in a single transaction. Accounts where nothing accrues are skipped.
func (s *TransactionService) ApplyMonthlyInterest(ctx context.Context, ownerID string) (run InterestRun, err error) {
	ctx, span := tracer.Start(ctx, "TransactionService.ApplyMonthlyInterest")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", ownerID))
	defer func(start time.Time) {
		finish(span, s.metrics, s.logger, "apply_monthly_interest", start, err,
			zap.String("user_id", ownerID),
			zap.Int("credited", len(run.Credited)),
			zap.Int("skipped", len(run.Skipped)))
	}(time.Now())

	if err := requireOwner(ownerID); err != nil {
		return InterestRun{}, err
	}

	err = s.store.WithTransaction(ctx, func(tx *repository.Store) error {
		run = InterestRun{Credited: []Movement{}, Skipped: []string{}}

		accounts, err := tx.Accounts().Load(ctx, ownerID)
		if err != nil {
			return err
		}
		records, err := tx.Records().Load(ctx, ownerID)
		if err != nil {
			return err
		}

		for i, a := range accounts {
			updated, record, err := ledger.ApplyInterest(s.env, a)
			if err != nil {
				if appErr, ok := errors.As(err); ok && appErr.Code == errors.NoAccrual {
					run.Skipped = append(run.Skipped, a.ID)
					continue
				}
				return err
			}
			accounts[i] = updated
			records = append(records, record)
			run.Credited = append(run.Credited, Movement{Account: updated, Record: record})
		}

		if len(run.Credited) == 0 {
			return nil
		}
		if err := tx.Accounts().Save(ctx, ownerID, accounts); err != nil {
			return err
		}
		return tx.Records().Save(ctx, ownerID, records)
	})
	if err != nil {
		return InterestRun{}, err
	}
	return run, nil
}
