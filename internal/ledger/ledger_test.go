package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Beegash/BBWallet/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ---- in-memory store ----

type memState struct {
	children     map[string]models.Child
	transactions map[string]models.Transaction
	investments  map[string]models.Investment
}

func (s memState) clone() memState {
	c := memState{
		children:     make(map[string]models.Child, len(s.children)),
		transactions: make(map[string]models.Transaction, len(s.transactions)),
		investments:  make(map[string]models.Investment, len(s.investments)),
	}
	for k, v := range s.children {
		c.children[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.investments {
		c.investments[k] = v
	}
	return c
}

type memStore struct {
	mu        sync.Mutex
	state     memState
	conflicts int // number of upcoming units of work that fail with a conflict
	failWrite error
	commits   int
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		children:     map[string]models.Child{},
		transactions: map[string]models.Transaction{},
		investments:  map[string]models.Investment{},
	}}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflicts > 0 {
		s.conflicts--
		return fmt.Errorf("serialization failure: %w", models.ErrConcurrencyConflict)
	}
	work := &memTx{state: s.state.clone(), failWrite: s.failWrite}
	if err := fn(work); err != nil {
		return err
	}
	s.state = work.state
	s.commits++
	return nil
}

func (s *memStore) child(id string) models.Child {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.children[id]
}

func (s *memStore) transaction(id string) (models.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.state.transactions[id]
	return t, ok
}

type memTx struct {
	state     memState
	failWrite error
}

func (m *memTx) LockChild(_ context.Context, childID, userID string) (*models.Child, error) {
	c, ok := m.state.children[childID]
	if !ok || c.UserID != userID {
		return nil, models.ErrChildNotFound
	}
	return &c, nil
}

func (m *memTx) LockTransaction(_ context.Context, id string) (*models.Transaction, error) {
	t, ok := m.state.transactions[id]
	if !ok {
		return nil, models.ErrTransactionNotFound
	}
	return &t, nil
}

func (m *memTx) GetInvestment(_ context.Context, id, userID string) (*models.Investment, error) {
	inv, ok := m.state.investments[id]
	if !ok || inv.UserID != userID {
		return nil, models.ErrInvestmentNotFound
	}
	return &inv, nil
}

func (m *memTx) InsertTransaction(_ context.Context, t *models.Transaction) error {
	m.state.transactions[t.ID] = *t
	return nil
}

func (m *memTx) UpdateTransactionStatus(_ context.Context, t *models.Transaction) error {
	m.state.transactions[t.ID] = *t
	return nil
}

func (m *memTx) UpdateChildBalance(_ context.Context, childID string, balance decimal.Decimal, at time.Time) error {
	if m.failWrite != nil {
		return m.failWrite
	}
	c := m.state.children[childID]
	c.CurrentBalance = balance
	c.UpdatedAt = at
	m.state.children[childID] = c
	return nil
}

func (m *memTx) AddInvestmentContribution(_ context.Context, id string, amount decimal.Decimal, at time.Time) error {
	inv := m.state.investments[id]
	inv.TotalContributed = inv.TotalContributed.Add(amount)
	inv.UpdatedAt = at
	m.state.investments[id] = inv
	return nil
}

// ---- helpers ----

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestLedger(store Store) *Ledger {
	fixed := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	return New(store, zap.NewNop(), WithClock(func() time.Time { return fixed }))
}

func seedChild(s *memStore, balance string) {
	s.state.children["chd-001"] = models.Child{
		ID: "chd-001", UserID: "usr-001", Name: "Ada",
		TargetAmount: dec("10000"), CurrentBalance: dec(balance), UnlockAge: 18, IsActive: true,
	}
}

func tx(id string, typ models.TransactionType, amount string, status models.TransactionStatus) *models.Transaction {
	return &models.Transaction{
		ID: id, UserID: "usr-001", ChildID: "chd-001",
		Type: typ, Amount: dec(amount), Status: status, Token: models.TokenUSDC,
	}
}

// ---- tests ----

func TestRecordTransactionNewCompletedCredit(t *testing.T) {
	store := newMemStore()
	seedChild(store, "1250")
	l := newTestLedger(store)

	res, err := l.RecordTransaction(context.Background(), tx("txn-1", models.TxInvestment, "500", models.TxCompleted))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Created || !res.Applied {
		t.Errorf("expected created and applied, got %+v", res)
	}
	if !res.Delta.Equal(dec("500")) {
		t.Errorf("delta = %s, want 500", res.Delta)
	}
	if got := store.child("chd-001").CurrentBalance; !got.Equal(dec("1750")) {
		t.Errorf("balance = %s, want 1750", got)
	}
	if !res.Child.CurrentBalance.Equal(dec("1750")) {
		t.Errorf("result child balance = %s, want 1750", res.Child.CurrentBalance)
	}
	stored, _ := store.transaction("txn-1")
	if stored.BalanceAppliedAt == nil {
		t.Error("expected balance applied marker to be persisted")
	}
}

func TestRecordTransactionDirection(t *testing.T) {
	tests := []struct {
		typ  models.TransactionType
		want string
	}{
		{typ: models.TxInvestment, want: "1100"},
		{typ: models.TxInterest, want: "1100"},
		{typ: models.TxRefund, want: "1100"},
		{typ: models.TxWithdrawal, want: "900"},
		{typ: models.TxFee, want: "900"},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			store := newMemStore()
			seedChild(store, "1000")
			l := newTestLedger(store)
			if _, err := l.RecordTransaction(context.Background(), tx("txn-1", tt.typ, "100", models.TxCompleted)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := store.child("chd-001").CurrentBalance; !got.Equal(dec(tt.want)) {
				t.Errorf("balance = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRecordTransactionPendingThenCompleted(t *testing.T) {
	store := newMemStore()
	seedChild(store, "0")
	l := newTestLedger(store)
	ctx := context.Background()

	res, err := l.RecordTransaction(ctx, tx("txn-1", models.TxInvestment, "250", models.TxPending))
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}
	if res.Applied {
		t.Error("pending transaction must not touch the balance")
	}
	if got := store.child("chd-001").CurrentBalance; !got.IsZero() {
		t.Fatalf("balance = %s, want 0", got)
	}

	res, err = l.RecordTransaction(ctx, tx("txn-1", models.TxInvestment, "250", models.TxCompleted))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if res.Created || !res.Applied || res.PreviousStatus != models.TxPending || !res.StatusChanged() {
		t.Errorf("unexpected result: %+v", res)
	}
	if got := store.child("chd-001").CurrentBalance; !got.Equal(dec("250")) {
		t.Errorf("balance = %s, want 250", got)
	}
}

func TestRecordTransactionResaveIsIdempotent(t *testing.T) {
	store := newMemStore()
	seedChild(store, "100")
	l := newTestLedger(store)
	ctx := context.Background()

	if _, err := l.RecordTransaction(ctx, tx("txn-1", models.TxInterest, "10", models.TxCompleted)); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 3; i++ {
		res, err := l.RecordTransaction(ctx, tx("txn-1", models.TxInterest, "10", models.TxCompleted))
		if err != nil {
			t.Fatalf("resave %d: %v", i, err)
		}
		if res.Applied || res.StatusChanged() {
			t.Errorf("resave %d should be a no-op, got %+v", i, res)
		}
	}
	if got := store.child("chd-001").CurrentBalance; !got.Equal(dec("110")) {
		t.Errorf("balance = %s, want 110", got)
	}
}

func TestRecordTransactionLeavingCompletedDoesNotReverse(t *testing.T) {
	store := newMemStore()
	seedChild(store, "0")
	l := newTestLedger(store)
	ctx := context.Background()

	if _, err := l.RecordTransaction(ctx, tx("txn-1", models.TxInvestment, "75", models.TxCompleted)); err != nil {
		t.Fatalf("create: %v", err)
	}
	res, err := l.RecordTransaction(ctx, tx("txn-1", models.TxInvestment, "75", models.TxCancelled))
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if res.Applied {
		t.Error("cancelling must not apply a delta")
	}
	if got := store.child("chd-001").CurrentBalance; !got.Equal(dec("75")) {
		t.Errorf("balance = %s, want 75 (no reversal)", got)
	}

	// Re-entering completed never applies the effect a second time.
	res, err = l.RecordTransaction(ctx, tx("txn-1", models.TxInvestment, "75", models.TxCompleted))
	if err != nil {
		t.Fatalf("recomplete: %v", err)
	}
	if res.Applied {
		t.Error("effect must be applied at most once per transaction")
	}
	if got := store.child("chd-001").CurrentBalance; !got.Equal(dec("75")) {
		t.Errorf("balance = %s, want 75", got)
	}
}

func TestRecordTransactionFailedNeverApplies(t *testing.T) {
	store := newMemStore()
	seedChild(store, "50")
	l := newTestLedger(store)
	ctx := context.Background()

	for _, status := range []models.TransactionStatus{models.TxFailed, models.TxCancelled, models.TxPending} {
		id := "txn-" + string(status)
		res, err := l.RecordTransaction(ctx, tx(id, models.TxWithdrawal, "20", status))
		if err != nil {
			t.Fatalf("%s: %v", status, err)
		}
		if res.Applied {
			t.Errorf("%s: should not apply", status)
		}
	}
	if got := store.child("chd-001").CurrentBalance; !got.Equal(dec("50")) {
		t.Errorf("balance = %s, want 50", got)
	}
}

func TestRecordTransactionOrderIndependence(t *testing.T) {
	postings := []*models.Transaction{
		tx("txn-a", models.TxInvestment, "100.10", models.TxCompleted),
		tx("txn-b", models.TxWithdrawal, "40.05", models.TxCompleted),
		tx("txn-c", models.TxInterest, "3.33", models.TxCompleted),
		tx("txn-d", models.TxFee, "1.01", models.TxCompleted),
		tx("txn-e", models.TxRefund, "12.00", models.TxCompleted),
	}
	orders := [][]int{{0, 1, 2, 3, 4}, {4, 3, 2, 1, 0}, {2, 0, 4, 1, 3}}
	want := dec("200").Add(dec("100.10")).Sub(dec("40.05")).Add(dec("3.33")).Sub(dec("1.01")).Add(dec("12.00"))

	for _, order := range orders {
		store := newMemStore()
		seedChild(store, "200")
		l := newTestLedger(store)
		for _, i := range order {
			if _, err := l.RecordTransaction(context.Background(), postings[i]); err != nil {
				t.Fatalf("order %v: %v", order, err)
			}
		}
		if got := store.child("chd-001").CurrentBalance; !got.Equal(want) {
			t.Errorf("order %v: balance = %s, want %s", order, got, want)
		}
	}
}

func TestRecordTransactionValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Transaction)
		wantErr error
	}{
		{name: "zero amount", mutate: func(t *models.Transaction) { t.Amount = decimal.Zero }, wantErr: models.ErrInvalidAmount},
		{name: "negative amount", mutate: func(t *models.Transaction) { t.Amount = dec("-5") }, wantErr: models.ErrInvalidAmount},
		{name: "sub-cent amount", mutate: func(t *models.Transaction) { t.Amount = dec("1.005") }, wantErr: models.ErrAmountPrecision},
		{name: "amount beyond column range", mutate: func(t *models.Transaction) { t.Amount = dec("10000000000000") }, wantErr: models.ErrAmountPrecision},
		{name: "unknown type", mutate: func(t *models.Transaction) { t.Type = "bonus" }, wantErr: models.ErrValidation},
		{name: "unknown status", mutate: func(t *models.Transaction) { t.Status = "settled" }, wantErr: models.ErrValidation},
		{name: "unknown child", mutate: func(t *models.Transaction) { t.ChildID = "chd-404" }, wantErr: models.ErrInvalidReference},
		{name: "child of another user", mutate: func(t *models.Transaction) { t.UserID = "usr-999" }, wantErr: models.ErrInvalidReference},
		{name: "unknown investment", mutate: func(t *models.Transaction) { t.InvestmentID = "inv-404" }, wantErr: models.ErrInvalidReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			seedChild(store, "10")
			l := newTestLedger(store)
			in := tx("txn-1", models.TxInvestment, "5", models.TxCompleted)
			tt.mutate(in)
			_, err := l.RecordTransaction(context.Background(), in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, models.ErrValidation) {
				t.Errorf("expected a validation error, got %v", err)
			}
			if got := store.child("chd-001").CurrentBalance; !got.Equal(dec("10")) {
				t.Errorf("balance changed to %s on failure", got)
			}
			if _, ok := store.transaction("txn-1"); ok {
				t.Error("failed write must not persist the transaction")
			}
		})
	}
}

func TestRecordTransactionImmutableFields(t *testing.T) {
	store := newMemStore()
	seedChild(store, "0")
	l := newTestLedger(store)
	ctx := context.Background()

	if _, err := l.RecordTransaction(ctx, tx("txn-1", models.TxInvestment, "10", models.TxPending)); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := l.RecordTransaction(ctx, tx("txn-1", models.TxInvestment, "99", models.TxCompleted))
	if !errors.Is(err, models.ErrImmutableTransaction) {
		t.Fatalf("amount change: got %v", err)
	}
	_, err = l.RecordTransaction(ctx, tx("txn-1", models.TxWithdrawal, "10", models.TxCompleted))
	if !errors.Is(err, models.ErrImmutableTransaction) {
		t.Fatalf("type change: got %v", err)
	}
	if got := store.child("chd-001").CurrentBalance; !got.IsZero() {
		t.Errorf("balance = %s, want 0", got)
	}
}

func TestRecordTransactionInvestmentContribution(t *testing.T) {
	store := newMemStore()
	seedChild(store, "0")
	store.state.investments["inv-1"] = models.Investment{
		ID: "inv-1", UserID: "usr-001", ChildID: "chd-001",
		Type: models.InvestmentRecurring, Status: models.InvestmentActive, Amount: dec("50"),
	}
	l := newTestLedger(store)
	ctx := context.Background()

	in := tx("txn-1", models.TxInvestment, "50", models.TxCompleted)
	in.InvestmentID = "inv-1"
	if _, err := l.RecordTransaction(ctx, in); err != nil {
		t.Fatalf("record: %v", err)
	}
	interest := tx("txn-2", models.TxInterest, "2", models.TxCompleted)
	interest.InvestmentID = "inv-1"
	if _, err := l.RecordTransaction(ctx, interest); err != nil {
		t.Fatalf("record interest: %v", err)
	}

	store.mu.Lock()
	got := store.state.investments["inv-1"].TotalContributed
	store.mu.Unlock()
	if !got.Equal(dec("50")) {
		t.Errorf("total contributed = %s, want 50 (interest does not count)", got)
	}
}

func TestRecordTransactionInvestmentOfOtherChild(t *testing.T) {
	store := newMemStore()
	seedChild(store, "0")
	store.state.investments["inv-1"] = models.Investment{ID: "inv-1", UserID: "usr-001", ChildID: "chd-other"}
	l := newTestLedger(store)

	in := tx("txn-1", models.TxInvestment, "50", models.TxCompleted)
	in.InvestmentID = "inv-1"
	if _, err := l.RecordTransaction(context.Background(), in); !errors.Is(err, models.ErrInvalidReference) {
		t.Fatalf("got %v, want ErrInvalidReference", err)
	}
}

func TestRecordTransactionRetriesConflicts(t *testing.T) {
	store := newMemStore()
	seedChild(store, "0")
	store.conflicts = 2
	l := newTestLedger(store)

	res, err := l.RecordTransaction(context.Background(), tx("txn-1", models.TxInvestment, "5", models.TxCompleted))
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if !res.Applied || store.commits != 1 {
		t.Errorf("expected exactly one committed application, commits=%d", store.commits)
	}
	if got := store.child("chd-001").CurrentBalance; !got.Equal(dec("5")) {
		t.Errorf("balance = %s, want 5", got)
	}
}

func TestRecordTransactionConflictsExhausted(t *testing.T) {
	store := newMemStore()
	seedChild(store, "0")
	store.conflicts = 10
	l := New(store, zap.NewNop(), WithMaxRetries(2))

	_, err := l.RecordTransaction(context.Background(), tx("txn-1", models.TxInvestment, "5", models.TxCompleted))
	if !errors.Is(err, models.ErrConcurrencyConflict) {
		t.Fatalf("got %v, want ErrConcurrencyConflict", err)
	}
	if store.conflicts != 8 {
		t.Errorf("expected 2 attempts, remaining conflicts=%d", store.conflicts)
	}
	if got := store.child("chd-001").CurrentBalance; !got.IsZero() {
		t.Errorf("balance = %s, want 0", got)
	}
}

func TestRecordTransactionFailedWriteLeavesStateIntact(t *testing.T) {
	store := newMemStore()
	seedChild(store, "10")
	store.failWrite = errors.New("disk full")
	l := newTestLedger(store)

	_, err := l.RecordTransaction(context.Background(), tx("txn-1", models.TxInvestment, "5", models.TxCompleted))
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := store.transaction("txn-1"); ok {
		t.Error("transaction persisted without its balance update")
	}
	if got := store.child("chd-001").CurrentBalance; !got.Equal(dec("10")) {
		t.Errorf("balance = %s, want 10", got)
	}
}

func TestRecordTransactionConcurrentPostings(t *testing.T) {
	store := newMemStore()
	seedChild(store, "0")
	l := newTestLedger(store)

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.RecordTransaction(context.Background(), tx(fmt.Sprintf("txn-%d", i), models.TxInvestment, "1.50", models.TxCompleted))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := store.child("chd-001").CurrentBalance; !got.Equal(dec("75")) {
		t.Errorf("balance = %s, want 75", got)
	}
}
