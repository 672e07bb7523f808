// Package ledger keeps each child's current balance consistent with its
// completed transaction history.
//
// Every transaction write goes through Ledger.RecordTransaction, which runs a
// single unit of work against the Store: lock the child, read the stored
// transaction (if any), persist the transaction and apply at most one balance
// delta. A transaction's effect is applied the first time it reaches
// completed and never again. Moving a completed transaction to failed or
// cancelled does not reverse its effect; corrections must be posted as new
// transactions.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Beegash/BBWallet/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultMaxRetries = 3
	retryBackoff      = 25 * time.Millisecond
)

// Store opens units of work. WithinTx must commit when fn returns nil and roll
// back otherwise. Implementations report lost-update conditions as
// models.ErrConcurrencyConflict so the ledger can retry.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of reads and writes the ledger performs inside one unit of work.
// Lookups return an error wrapping models.ErrNotFound when the row is absent.
type Tx interface {
	LockChild(ctx context.Context, childID, userID string) (*models.Child, error)
	LockTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)
	GetInvestment(ctx context.Context, investmentID, userID string) (*models.Investment, error)
	InsertTransaction(ctx context.Context, t *models.Transaction) error
	UpdateTransactionStatus(ctx context.Context, t *models.Transaction) error
	UpdateChildBalance(ctx context.Context, childID string, balance decimal.Decimal, at time.Time) error
	AddInvestmentContribution(ctx context.Context, investmentID string, amount decimal.Decimal, at time.Time) error
}

// Result describes what a RecordTransaction call did.
type Result struct {
	Transaction    *models.Transaction
	Child          *models.Child
	PreviousStatus models.TransactionStatus // empty for new transactions
	Created        bool
	Applied        bool
	Delta          decimal.Decimal
}

// StatusChanged reports whether an existing transaction moved to a new status.
func (r *Result) StatusChanged() bool {
	return !r.Created && r.PreviousStatus != r.Transaction.Status
}

type Ledger struct {
	store      Store
	logger     *zap.Logger
	maxRetries int
	now        func() time.Time
}

type Option func(*Ledger)

func WithMaxRetries(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.maxRetries = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(store Store, logger *zap.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		store:      store,
		logger:     logger,
		maxRetries: DefaultMaxRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Delta returns the signed balance effect of a transaction once completed.
func Delta(t *models.Transaction) decimal.Decimal {
	switch t.Type.Direction() {
	case models.Credit:
		return t.Amount
	case models.Debit:
		return t.Amount.Neg()
	}
	return decimal.Zero
}

func validate(t *models.Transaction) error {
	if !t.Amount.IsPositive() {
		return models.ErrInvalidAmount
	}
	if !models.IsMoney(t.Amount) {
		return models.ErrAmountPrecision
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", models.ErrValidation, t.Type)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown transaction status %q", models.ErrValidation, t.Status)
	}
	if t.ID == "" || t.ChildID == "" || t.UserID == "" {
		return fmt.Errorf("%w: transaction, child and owner ids are required", models.ErrValidation)
	}
	return nil
}

// RecordTransaction stores a new transaction or a status change of an existing
// one and applies its balance effect if it has just reached completed for the
// first time. Conflicting concurrent writers are retried up to the configured
// limit before models.ErrConcurrencyConflict is returned.
func (l *Ledger) RecordTransaction(ctx context.Context, t *models.Transaction) (*Result, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= l.maxRetries; attempt++ {
		result, err := l.record(ctx, t)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, models.ErrConcurrencyConflict) {
			return nil, err
		}
		lastErr = err
		l.logger.Warn("Ledger write conflict, retrying",
			zap.String("transaction_id", t.ID),
			zap.String("child_id", t.ChildID),
			zap.Int("attempt", attempt),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return nil, fmt.Errorf("record transaction %s after %d attempts: %w", t.ID, l.maxRetries, lastErr)
}

func (l *Ledger) record(ctx context.Context, in *models.Transaction) (*Result, error) {
	var result *Result
	err := l.store.WithinTx(ctx, func(tx Tx) error {
		child, err := tx.LockChild(ctx, in.ChildID, in.UserID)
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrInvalidReference
		}
		if err != nil {
			return fmt.Errorf("lock child %s: %w", in.ChildID, err)
		}

		stored, err := tx.LockTransaction(ctx, in.ID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("lock transaction %s: %w", in.ID, err)
		}

		now := l.now()
		res := &Result{Child: child, Delta: decimal.Zero}

		if stored == nil {
			if err := l.checkInvestment(ctx, tx, in); err != nil {
				return err
			}
			t := *in
			t.CreatedAt, t.UpdatedAt = now, now
			t.BalanceAppliedAt = nil
			res.Created = true
			res.Transaction = &t
		} else {
			if stored.UserID != in.UserID {
				return models.ErrInvalidReference
			}
			if !sameImmutableFields(stored, in) {
				return models.ErrImmutableTransaction
			}
			t := *stored
			res.PreviousStatus = stored.Status
			t.Status = in.Status
			if res.PreviousStatus != t.Status {
				t.UpdatedAt = now
			}
			res.Transaction = &t
		}

		t := res.Transaction
		entering := t.Status == models.TxCompleted && (res.Created || res.PreviousStatus != models.TxCompleted)
		if entering && t.BalanceAppliedAt == nil {
			res.Applied = true
			res.Delta = Delta(t)
			applied := now
			t.BalanceAppliedAt = &applied
		}

		if res.Created {
			err = tx.InsertTransaction(ctx, t)
		} else if res.PreviousStatus != t.Status || res.Applied {
			err = tx.UpdateTransactionStatus(ctx, t)
		}
		if err != nil {
			return fmt.Errorf("persist transaction %s: %w", t.ID, err)
		}

		if res.Applied {
			child.CurrentBalance = child.CurrentBalance.Add(res.Delta)
			child.UpdatedAt = now
			if err := tx.UpdateChildBalance(ctx, child.ID, child.CurrentBalance, now); err != nil {
				return fmt.Errorf("update balance of child %s: %w", child.ID, err)
			}
			if t.InvestmentID != "" && t.Type == models.TxInvestment {
				if err := tx.AddInvestmentContribution(ctx, t.InvestmentID, t.Amount, now); err != nil {
					return fmt.Errorf("update contribution of investment %s: %w", t.InvestmentID, err)
				}
			}
		}

		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Applied {
		l.logger.Info("Balance updated",
			zap.String("child_id", result.Child.ID),
			zap.String("transaction_id", result.Transaction.ID),
			zap.String("delta", result.Delta.StringFixed(2)),
			zap.String("new_balance", result.Child.CurrentBalance.StringFixed(2)))
	}
	return result, nil
}

func (l *Ledger) checkInvestment(ctx context.Context, tx Tx, t *models.Transaction) error {
	if t.InvestmentID == "" {
		return nil
	}
	inv, err := tx.GetInvestment(ctx, t.InvestmentID, t.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrInvalidReference
	}
	if err != nil {
		return fmt.Errorf("get investment %s: %w", t.InvestmentID, err)
	}
	if inv.ChildID != t.ChildID {
		return models.ErrInvalidReference
	}
	return nil
}

func sameImmutableFields(stored, in *models.Transaction) bool {
	return stored.ChildID == in.ChildID &&
		stored.InvestmentID == in.InvestmentID &&
		stored.Type == in.Type &&
		stored.Amount.Equal(in.Amount)
}
