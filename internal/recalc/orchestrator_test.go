package recalc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/iam-hussain/peacock-app-sub002/internal/config"
	"github.com/iam-hussain/peacock-app-sub002/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	clubStart = time.Date(2020, 9, 1, 0, 0, 0, 0, time.UTC)
	fixedNow  = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	clubID    = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	memberA   = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002")
	memberB   = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000003")
	vendorV   = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000004")
)

type fakeStore struct {
	mu        sync.Mutex
	accounts  []domain.Account
	txs       []domain.Transaction
	shares    []domain.VendorProfitShare
	passbooks map[uuid.UUID]*domain.Passbook
	summaries []domain.Summary
	commitErr error
	commits   int
	nextSeq   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{passbooks: make(map[uuid.UUID]*domain.Passbook), nextSeq: 1}
}

func (s *fakeStore) addAccount(id uuid.UUID, kind domain.AccountKind, startAt time.Time) {
	s.accounts = append(s.accounts, domain.Account{
		ID: id, Kind: kind, Active: true, StartAt: startAt,
	})
}

func (s *fakeStore) addTx(day int, typ domain.TransactionType, from, to uuid.UUID, amount int64) domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := domain.Transaction{
		ID:         uuid.New(),
		FromID:     from,
		ToID:       to,
		Amount:     amount,
		Type:       typ,
		Method:     domain.MethodUPI,
		OccurredAt: clubStart.AddDate(0, 0, day),
		Seq:        s.nextSeq,
	}
	s.nextSeq++
	s.txs = append(s.txs, t)
	return t
}

func (s *fakeStore) deleteTx(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.txs[:0]
	for _, t := range s.txs {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.txs = kept
}

func (s *fakeStore) ListAccounts(context.Context) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Account, len(s.accounts))
	copy(out, s.accounts)
	return out, nil
}

func (s *fakeStore) GetAccount(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			a := s.accounts[i]
			return &a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (s *fakeStore) GetPassbook(_ context.Context, id uuid.UUID) (*domain.Passbook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pb, ok := s.passbooks[id]; ok {
		cp := *pb
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) ListTransactions(context.Context) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Transaction, len(s.txs))
	copy(out, s.txs)
	return out, nil
}

func (s *fakeStore) ListTransactionsByAccount(_ context.Context, id uuid.UUID) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Transaction
	for _, t := range s.txs {
		if t.Touches(id) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) ListProfitShares(context.Context) ([]domain.VendorProfitShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.VendorProfitShare, len(s.shares))
	copy(out, s.shares)
	return out, nil
}

func (s *fakeStore) CommitRecalculation(_ context.Context, passbooks map[uuid.UUID]*domain.Passbook, summaries []domain.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commitErr != nil {
		return s.commitErr
	}
	for id, pb := range passbooks {
		cp := *pb
		s.passbooks[id] = &cp
	}
	if summaries != nil {
		s.summaries = summaries
	}
	s.commits++
	return nil
}

type fakeLock struct{ err error }

func (l *fakeLock) WithLock(ctx context.Context, fn func(context.Context) error) error {
	if l.err != nil {
		return l.err
	}
	return fn(ctx)
}

type spyCache struct {
	mu   sync.Mutex
	tags []string
}

func (c *spyCache) Invalidate(_ context.Context, tags ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags = append(c.tags, tags...)
	return nil
}

func testOrchestrator(store *fakeStore) (*Orchestrator, *spyCache) {
	cache := &spyCache{}
	o := New(store, &fakeLock{}, cache, &config.Config{
		LoanInterestMonthlyPct: 0.01,
		ClubStartedAt:          clubStart,
		RecalcWorkers:          4,
	})
	o.now = func() time.Time { return fixedNow }
	return o, cache
}

func seedClubAndMember(store *fakeStore) {
	store.addAccount(clubID, domain.AccountKindClub, clubStart)
	store.addAccount(memberA, domain.AccountKindMember, clubStart)
}

func TestFullPassWorkedExample(t *testing.T) {
	store := newFakeStore()
	seedClubAndMember(store)
	store.addTx(1, domain.TransactionTypeDeposit, memberA, clubID, 10_000)
	store.addTx(30, domain.TransactionTypeDeposit, memberA, clubID, 5_000)
	store.addTx(60, domain.TransactionTypeWithdraw, clubID, memberA, 2_000)

	o, _ := testOrchestrator(store)
	pass, err := o.Full(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StateDone, pass.State)
	assert.Equal(t, 2, pass.Accounts)
	assert.Empty(t, pass.Anomalies)

	pb := store.passbooks[memberA]
	require.NotNil(t, pb)
	assert.Equal(t, int64(15_000), pb.In)
	assert.Equal(t, int64(2_000), pb.Out)
	assert.Equal(t, int64(13_000), pb.NetBalance())

	club := store.passbooks[clubID]
	require.NotNil(t, club)
	assert.Equal(t, int64(15_000), club.Fund)
	assert.Equal(t, int64(13_000), club.Balance)
}

func TestFullPassIdempotent(t *testing.T) {
	store := newFakeStore()
	seedClubAndMember(store)
	store.addAccount(memberB, domain.AccountKindMember, clubStart.AddDate(0, 6, 0))
	store.addTx(1, domain.TransactionTypeDeposit, memberA, clubID, 10_000)
	store.addTx(200, domain.TransactionTypeDeposit, memberB, clubID, 7_000)
	store.addTx(300, domain.TransactionTypeLoan, clubID, memberA, 5_000)

	o, _ := testOrchestrator(store)

	_, err := o.Full(context.Background())
	require.NoError(t, err)
	first := snapshotPassbooks(store)

	_, err = o.Full(context.Background())
	require.NoError(t, err)
	second := snapshotPassbooks(store)

	assert.Equal(t, first, second)
}

func TestReplayEquivalence(t *testing.T) {
	store := newFakeStore()
	seedClubAndMember(store)
	store.addTx(1, domain.TransactionTypeDeposit, memberA, clubID, 10_000)
	victim := store.addTx(30, domain.TransactionTypeDeposit, memberA, clubID, 5_000)
	store.addTx(60, domain.TransactionTypeWithdraw, clubID, memberA, 2_000)

	o, _ := testOrchestrator(store)

	_, err := o.Full(context.Background())
	require.NoError(t, err)
	before := snapshotPassbooks(store)

	// Delete the middle transaction, then recreate it identically; the
	// replayed state must match the original bit for bit.
	store.deleteTx(victim.ID)
	_, err = o.Full(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, before, snapshotPassbooks(store))

	store.addTx(30, domain.TransactionTypeDeposit, memberA, clubID, 5_000)
	_, err = o.Full(context.Background())
	require.NoError(t, err)

	assert.Equal(t, before, snapshotPassbooks(store))
}

func TestFullPassDistributesReturns(t *testing.T) {
	store := newFakeStore()
	seedClubAndMember(store)
	store.addAccount(memberB, domain.AccountKindMember, clubStart)
	store.addAccount(vendorV, domain.AccountKindVendor, clubStart)

	store.addTx(1, domain.TransactionTypeDeposit, memberA, clubID, 20_000)
	store.addTx(1, domain.TransactionTypeDeposit, memberB, clubID, 10_000)
	store.addTx(2, domain.TransactionTypeFundsTransfer, clubID, vendorV, 25_000)
	store.addTx(400, domain.TransactionTypeReturn, vendorV, clubID, 9_000)

	o, _ := testOrchestrator(store)
	pass, err := o.Full(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateDone, pass.State)

	// Pool of 9000 split 2:1 by month-weighted deposits (equal tenure).
	assert.Equal(t, int64(6_000), store.passbooks[memberA].DistributedReturns)
	assert.Equal(t, int64(3_000), store.passbooks[memberB].DistributedReturns)

	// Distribution credits stay separate from replayed direct returns.
	assert.Equal(t, int64(0), store.passbooks[memberA].Returns)

	// Conservation: every unit of the pool lands on a member.
	total := store.passbooks[memberA].DistributedReturns + store.passbooks[memberB].DistributedReturns
	assert.Equal(t, int64(9_000), total)
}

func TestFullPassVendorLossFloorsProfit(t *testing.T) {
	store := newFakeStore()
	seedClubAndMember(store)
	store.addAccount(vendorV, domain.AccountKindVendor, clubStart)
	store.shares = []domain.VendorProfitShare{
		{ID: uuid.New(), VendorID: vendorV, MemberID: memberA, Weight: 1, Active: true},
	}

	store.addTx(1, domain.TransactionTypeDeposit, memberA, clubID, 60_000)
	store.addTx(2, domain.TransactionTypeFundsTransfer, clubID, vendorV, 50_000)
	store.addTx(300, domain.TransactionTypeReturn, vendorV, clubID, 42_000)

	o, _ := testOrchestrator(store)
	_, err := o.Full(context.Background())
	require.NoError(t, err)

	vendor := store.passbooks[vendorV]
	require.NotNil(t, vendor)
	assert.Equal(t, int64(50_000), vendor.TotalInvestment)
	assert.Equal(t, int64(42_000), vendor.TotalReturns)
	assert.Equal(t, int64(0), vendor.TotalProfit)
}

func TestFullPassBulkheadIsolation(t *testing.T) {
	store := newFakeStore()
	seedClubAndMember(store)
	store.addAccount(memberB, domain.AccountKindMember, clubStart)

	store.addTx(1, domain.TransactionTypeDeposit, memberA, clubID, 10_000)
	// memberB's history contains a corrupted row.
	bad := store.addTx(2, domain.TransactionTypeDeposit, memberB, clubID, 5_000)
	store.mu.Lock()
	for i := range store.txs {
		if store.txs[i].ID == bad.ID {
			store.txs[i].Amount = -5_000
		}
	}
	store.mu.Unlock()

	o, _ := testOrchestrator(store)
	pass, err := o.Full(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StateDone, pass.State)
	require.NotEmpty(t, pass.Anomalies)
	assert.Equal(t, domain.AnomalyMalformedTransaction, pass.Anomalies[0].Kind)

	// memberA is committed; memberB is skipped, not clobbered.
	assert.NotNil(t, store.passbooks[memberA])
	assert.Nil(t, store.passbooks[memberB])
}

func TestCommitConflictFailsAtomically(t *testing.T) {
	store := newFakeStore()
	seedClubAndMember(store)
	store.addTx(1, domain.TransactionTypeDeposit, memberA, clubID, 10_000)
	store.commitErr = domain.ErrCommitConflict

	o, cache := testOrchestrator(store)
	pass, err := o.Full(context.Background())

	require.ErrorIs(t, err, domain.ErrCommitConflict)
	assert.Equal(t, StateFailed, pass.State)
	assert.Empty(t, store.passbooks, "no partial writes on failure")
	assert.Empty(t, cache.tags, "cache untouched when commit fails")
}

func TestRecalcLockContention(t *testing.T) {
	store := newFakeStore()
	seedClubAndMember(store)

	cache := &spyCache{}
	o := New(store, &fakeLock{err: domain.ErrRecalcInProgress}, cache, &config.Config{
		LoanInterestMonthlyPct: 0.01,
		ClubStartedAt:          clubStart,
		RecalcWorkers:          2,
	})

	pass, err := o.Full(context.Background())
	require.ErrorIs(t, err, domain.ErrRecalcInProgress)
	assert.Equal(t, StateFailed, pass.State)
	assert.Equal(t, 0, store.commits)
}

func TestTargetedReset(t *testing.T) {
	store := newFakeStore()
	seedClubAndMember(store)
	store.addAccount(memberB, domain.AccountKindMember, clubStart)
	store.addTx(1, domain.TransactionTypeDeposit, memberA, clubID, 10_000)
	store.addTx(1, domain.TransactionTypeDeposit, memberB, clubID, 4_000)
	store.addTx(30, domain.TransactionTypeLoan, clubID, memberA, 8_000)

	o, cache := testOrchestrator(store)
	pass, err := o.Targeted(context.Background(), memberA)

	require.NoError(t, err)
	assert.Equal(t, StateDone, pass.State)
	assert.Equal(t, 1, pass.Accounts)

	pb := store.passbooks[memberA]
	require.NotNil(t, pb)
	assert.Equal(t, int64(10_000), pb.In)
	require.Len(t, pb.LoanHistory, 1)
	assert.Equal(t, int64(8_000), pb.LoanHistory[0].Principal)

	// Only the targeted account was touched.
	assert.Nil(t, store.passbooks[memberB])
	assert.Contains(t, cache.tags, "passbook:"+memberA.String())
}

func TestTargetedPreservesDistributedReturns(t *testing.T) {
	store := newFakeStore()
	seedClubAndMember(store)
	store.addAccount(vendorV, domain.AccountKindVendor, clubStart)
	store.addTx(1, domain.TransactionTypeDeposit, memberA, clubID, 10_000)
	store.addTx(200, domain.TransactionTypeReturn, vendorV, clubID, 3_000)

	o, _ := testOrchestrator(store)
	_, err := o.Full(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3_000), store.passbooks[memberA].DistributedReturns)

	_, err = o.Targeted(context.Background(), memberA)
	require.NoError(t, err)
	assert.Equal(t, int64(3_000), store.passbooks[memberA].DistributedReturns)
}

func TestTargetedAppliesDirectReturn(t *testing.T) {
	store := newFakeStore()
	seedClubAndMember(store)
	store.addAccount(vendorV, domain.AccountKindVendor, clubStart)
	store.addTx(1, domain.TransactionTypeDeposit, memberA, clubID, 10_000)
	store.addTx(200, domain.TransactionTypeReturn, vendorV, clubID, 3_000)

	o, _ := testOrchestrator(store)
	_, err := o.Full(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(0), store.passbooks[memberA].Returns)

	// A new direct payout into the member must survive the targeted replay
	// alongside the carried distribution credit.
	pass, err := o.RecordTransaction(context.Background(), func(context.Context) (*domain.Transaction, error) {
		created := store.addTx(210, domain.TransactionTypeReturn, clubID, memberA, 500)
		return &created, nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateDone, pass.State)

	pb := store.passbooks[memberA]
	assert.Equal(t, int64(500), pb.Returns)
	assert.Equal(t, int64(3_000), pb.DistributedReturns)
}

func TestTargetedKeepsVendorProfit(t *testing.T) {
	store := newFakeStore()
	seedClubAndMember(store)
	store.addAccount(vendorV, domain.AccountKindVendor, clubStart)
	store.addTx(1, domain.TransactionTypeDeposit, memberA, clubID, 10_000)
	store.addTx(2, domain.TransactionTypeFundsTransfer, clubID, vendorV, 2_000)
	store.addTx(300, domain.TransactionTypeReturn, vendorV, clubID, 2_500)

	o, _ := testOrchestrator(store)
	_, err := o.Full(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(500), store.passbooks[vendorV].TotalProfit)

	// Profit is derived from the vendor's own replay, so a targeted pass on
	// an unchanged ledger must reproduce it, not zero it.
	_, err = o.Targeted(context.Background(), vendorV)
	require.NoError(t, err)
	assert.Equal(t, int64(500), store.passbooks[vendorV].TotalProfit)
}

func TestTargetedUnknownAccount(t *testing.T) {
	store := newFakeStore()
	seedClubAndMember(store)

	o, _ := testOrchestrator(store)
	pass, err := o.Targeted(context.Background(), uuid.New())

	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Equal(t, StateFailed, pass.State)
	assert.Equal(t, 0, store.commits)
}

func TestRecordTransactionUpdatesBothSides(t *testing.T) {
	store := newFakeStore()
	seedClubAndMember(store)

	o, _ := testOrchestrator(store)
	pass, err := o.RecordTransaction(context.Background(), func(context.Context) (*domain.Transaction, error) {
		created := store.addTx(1, domain.TransactionTypeDeposit, memberA, clubID, 10_000)
		return &created, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, pass.Accounts)
	assert.Equal(t, int64(10_000), store.passbooks[memberA].In)
	assert.Equal(t, int64(10_000), store.passbooks[clubID].Fund)
}

func TestRecordTransactionLockBusy(t *testing.T) {
	store := newFakeStore()
	seedClubAndMember(store)

	o := New(store, &fakeLock{err: domain.ErrRecalcInProgress}, &spyCache{}, &config.Config{
		LoanInterestMonthlyPct: 0.01,
		ClubStartedAt:          clubStart,
		RecalcWorkers:          2,
	})

	persisted := false
	pass, err := o.RecordTransaction(context.Background(), func(context.Context) (*domain.Transaction, error) {
		persisted = true
		created := store.addTx(1, domain.TransactionTypeDeposit, memberA, clubID, 10_000)
		return &created, nil
	})

	require.ErrorIs(t, err, domain.ErrRecalcInProgress)
	assert.Equal(t, StateFailed, pass.State)
	assert.False(t, persisted, "a busy lock must reject the entry before it is written")
	assert.Empty(t, store.txs)
}

func TestRemoveTransactionReplaysFullLedger(t *testing.T) {
	store := newFakeStore()
	seedClubAndMember(store)
	store.addTx(1, domain.TransactionTypeDeposit, memberA, clubID, 10_000)
	victim := store.addTx(30, domain.TransactionTypeDeposit, memberA, clubID, 5_000)

	o, _ := testOrchestrator(store)
	_, err := o.Full(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(15_000), store.passbooks[memberA].In)

	pass, err := o.RemoveTransaction(context.Background(), func(context.Context) error {
		store.deleteTx(victim.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateDone, pass.State)
	assert.Equal(t, int64(10_000), store.passbooks[memberA].In)
	assert.Equal(t, int64(10_000), store.passbooks[clubID].Fund)
}

func TestRebuildSummaries(t *testing.T) {
	store := newFakeStore()
	seedClubAndMember(store)
	store.addTx(1, domain.TransactionTypeDeposit, memberA, clubID, 10_000)
	store.addTx(45, domain.TransactionTypeDeposit, memberA, clubID, 5_000)
	store.addTx(50, domain.TransactionTypeLoan, clubID, memberA, 4_000)

	o, cache := testOrchestrator(store)
	pass, err := o.RebuildSummaries(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StateDone, pass.State)
	require.NotEmpty(t, store.summaries)
	assert.Contains(t, cache.tags, TagSummaries)

	first := store.summaries[0]
	assert.Equal(t, "2020-09", first.Month)
	assert.Equal(t, int64(10_000), first.TotalDeposits)
	assert.Equal(t, 1, first.MemberCount)

	second := store.summaries[1]
	assert.Equal(t, "2020-10", second.Month)
	assert.Equal(t, int64(15_000), second.TotalDeposits)
	assert.Equal(t, int64(11_000), second.TotalBalance)
	// Outstanding loan counts toward net value.
	assert.Equal(t, int64(15_000), second.NetValue)

	// Passbooks are untouched by a summary-only rebuild.
	assert.Empty(t, store.passbooks)
}

func snapshotPassbooks(store *fakeStore) map[uuid.UUID]domain.Passbook {
	store.mu.Lock()
	defer store.mu.Unlock()
	out := make(map[uuid.UUID]domain.Passbook, len(store.passbooks))
	for id, pb := range store.passbooks {
		out[id] = *pb
	}
	return out
}
