package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"virtual-bank/internal/domain"
	"virtual-bank/internal/errors"
	"virtual-bank/internal/ledger"
	"virtual-bank/internal/observability"
	"virtual-bank/internal/repository"
)

type AccountService struct {
	store   *repository.Store
	env     ledger.Env
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewAccountService(store *repository.Store, env ledger.Env, metrics *observability.Metrics, logger *zap.Logger) *AccountService {
	return &AccountService{
		store:   store,
		env:     env,
		metrics: metrics,
		logger:  logger,
	}
}

type CreateAccountRequest struct {
	DisplayName    string
	Kind           string
	InitialBalance decimal.Decimal
}

// AuditReport is the result of replaying an owner's records against the
// stored balances.
type AuditReport struct {
	AccountsChecked int      `json:"accounts_checked"`
	RecordsChecked  int      `json:"records_checked"`
	Consistent      bool     `json:"consistent"`
	Problems        []string `json:"problems"`
}

// CreateAccount opens an account; an empty kind means checking.
func (s *AccountService) CreateAccount(ctx context.Context, ownerID string, req CreateAccountRequest) (account domain.Account, err error) {
	ctx, span := tracer.Start(ctx, "AccountService.CreateAccount")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", ownerID))
	defer func(start time.Time) {
		finish(span, s.metrics, s.logger, "create_account", start, err,
			zap.String("user_id", ownerID), zap.String("account_id", account.ID))
	}(time.Now())

	if err := requireOwner(ownerID); err != nil {
		return domain.Account{}, err
	}

	kind := domain.AccountKindChecking
	if strings.TrimSpace(req.Kind) != "" {
		if kind, err = domain.ParseAccountKind(req.Kind); err != nil {
			return domain.Account{}, errors.ErrValidation.WithDetails(err.Error())
		}
	}

	err = s.store.WithTransaction(ctx, func(tx *repository.Store) error {
		accounts, err := tx.Accounts().Load(ctx, ownerID)
		if err != nil {
			return err
		}
		seq, err := tx.NextAccountSequence(ctx)
		if err != nil {
			return err
		}
		account, err = ledger.CreateAccount(s.env, ownerID, req.DisplayName, kind, req.InitialBalance, seq)
		if err != nil {
			return err
		}
		return tx.Accounts().Save(ctx, ownerID, append(accounts, account))
	})
	if err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

func (s *AccountService) ListAccounts(ctx context.Context, ownerID string) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "AccountService.ListAccounts")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", ownerID))

	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.store.Accounts().Load(ctx, ownerID)
}

func (s *AccountService) GetAccount(ctx context.Context, ownerID, accountID string) (domain.Account, error) {
	ctx, span := tracer.Start(ctx, "AccountService.GetAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	accounts, err := s.ListAccounts(ctx, ownerID)
	if err != nil {
		return domain.Account{}, err
	}
	i := domain.FindAccount(accounts, accountID)
	if i < 0 {
		return domain.Account{}, errors.ErrAccountNotFound.WithDetails(accountID)
	}
	return accounts[i], nil
}

func (s *AccountService) CloseAccount(ctx context.Context, ownerID, accountID string) (domain.Account, error) {
	return s.updateAccount(ctx, "close_account", ownerID, accountID, ledger.CloseAccount)
}

func (s *AccountService) FreezeAccount(ctx context.Context, ownerID, accountID string) (domain.Account, error) {
	return s.updateAccount(ctx, "freeze_account", ownerID, accountID, func(a domain.Account) (domain.Account, error) {
		return ledger.Freeze(a), nil
	})
}

func (s *AccountService) UnfreezeAccount(ctx context.Context, ownerID, accountID string) (domain.Account, error) {
	return s.updateAccount(ctx, "unfreeze_account", ownerID, accountID, func(a domain.Account) (domain.Account, error) {
		return ledger.Unfreeze(a), nil
	})
}

func (s *AccountService) updateAccount(ctx context.Context, op, ownerID, accountID string, apply func(domain.Account) (domain.Account, error)) (account domain.Account, err error) {
	ctx, span := tracer.Start(ctx, "AccountService."+op)
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))
	defer func(start time.Time) {
		finish(span, s.metrics, s.logger, op, start, err,
			zap.String("user_id", ownerID), zap.String("account_id", accountID))
	}(time.Now())

	if err := requireOwner(ownerID); err != nil {
		return domain.Account{}, err
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
		if account, err = apply(accounts[i]); err != nil {
			return err
		}
		accounts[i] = account
		return tx.Accounts().Save(ctx, ownerID, accounts)
	})
	if err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

// Statement returns the account's records newest first. limit <= 0 returns
// all of them.
func (s *AccountService) Statement(ctx context.Context, ownerID, accountID string, limit int) ([]domain.TransactionRecord, error) {
	ctx, span := tracer.Start(ctx, "AccountService.Statement")
	defer span.End()

	account, records, err := s.accountWithRecords(ctx, ownerID, accountID)
	if err != nil {
		return nil, err
	}
	statement := ledger.Statement(records, account.ID, limit)
	if statement == nil {
		statement = []domain.TransactionRecord{}
	}
	return statement, nil
}

func (s *AccountService) Summary(ctx context.Context, ownerID, accountID string) (ledger.Summary, error) {
	ctx, span := tracer.Start(ctx, "AccountService.Summary")
	defer span.End()

	account, records, err := s.accountWithRecords(ctx, ownerID, accountID)
	if err != nil {
		return ledger.Summary{}, err
	}
	return ledger.Summarize(account, records), nil
}

// DailyLimit reports how much of the account's daily transfer limit is left
// and whether proposed still fits in it.
func (s *AccountService) DailyLimit(ctx context.Context, ownerID, accountID string, proposed decimal.Decimal) (ledger.DailyLimitCheck, error) {
	ctx, span := tracer.Start(ctx, "AccountService.DailyLimit")
	defer span.End()

	if proposed.IsNegative() {
		return ledger.DailyLimitCheck{}, errors.ErrInvalidAmount
	}
	account, records, err := s.accountWithRecords(ctx, ownerID, accountID)
	if err != nil {
		return ledger.DailyLimitCheck{}, err
	}
	return ledger.CheckDailyTransferLimit(account, records, proposed, s.env.Now()), nil
}

// Audit replays every account from its opening balance and checks that
// transfer records pair up.
func (s *AccountService) Audit(ctx context.Context, ownerID string) (AuditReport, error) {
	ctx, span := tracer.Start(ctx, "AccountService.Audit")
	defer span.End()

	if err := requireOwner(ownerID); err != nil {
		return AuditReport{}, err
	}

	report := AuditReport{Problems: []string{}}
	err := s.store.WithTransaction(ctx, func(tx *repository.Store) error {
		accounts, err := tx.Accounts().Load(ctx, ownerID)
		if err != nil {
			return err
		}
		records, err := tx.Records().Load(ctx, ownerID)
		if err != nil {
			return err
		}

		report.AccountsChecked = len(accounts)
		report.RecordsChecked = len(records)
		for _, a := range accounts {
			if err := ledger.Reconcile(a, records); err != nil {
				report.Problems = append(report.Problems, err.Error())
			}
		}
		if err := ledger.VerifyPairs(records); err != nil {
			report.Problems = append(report.Problems, err.Error())
		}
		return nil
	})
	if err != nil {
		return AuditReport{}, err
	}

	report.Consistent = len(report.Problems) == 0
	if !report.Consistent {
		s.logger.Warn("Ledger audit found problems",
			zap.String("user_id", ownerID), zap.Strings("problems", report.Problems))
	}
	return report, nil
}

func (s *AccountService) accountWithRecords(ctx context.Context, ownerID, accountID string) (domain.Account, []domain.TransactionRecord, error) {
	account, err := s.GetAccount(ctx, ownerID, accountID)
	if err != nil {
		return domain.Account{}, nil, err
	}
	records, err := s.store.Records().Load(ctx, ownerID)
	if err != nil {
		return domain.Account{}, nil, fmt.Errorf("load records: %w", err)
	}
	return account, records, nil
}
