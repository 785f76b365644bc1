package recalc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iam-hussain/peacock-app-sub002/internal/config"
	"github.com/iam-hussain/peacock-app-sub002/internal/domain"
	"github.com/iam-hussain/peacock-app-sub002/internal/logging"
	"github.com/iam-hussain/peacock-app-sub002/internal/passbook"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type State string

const (
	StateIdle        State = "IDLE"
	StateLoading     State = "LOADING"
	StateAggregating State = "AGGREGATING"
	StateCommitting  State = "COMMITTING"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

const (
	TagPassbooks = "passbooks"
	TagSummaries = "summaries"
)

type ledgerStore interface {
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetPassbook(ctx context.Context, accountID uuid.UUID) (*domain.Passbook, error)
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	ListTransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error)
	ListProfitShares(ctx context.Context) ([]domain.VendorProfitShare, error)
	CommitRecalculation(ctx context.Context, passbooks map[uuid.UUID]*domain.Passbook, summaries []domain.Summary) error
}

type locker interface {
	WithLock(ctx context.Context, fn func(context.Context) error) error
}

type invalidator interface {
	Invalidate(ctx context.Context, tags ...string) error
}

// Pass is the visible outcome of one recalculation run.
type Pass struct {
	State      State
	Accounts   int
	Anomalies  []domain.Anomaly
	StartedAt  time.Time
	FinishedAt time.Time
}

// Orchestrator coordinates full-ledger and single-account replays. Every
// pass holds the recalculation lock for its whole duration so concurrent
// ledger writes cannot be half-observed, aggregates in memory, and lands the
// resulting passbook set as one atomic bulk write. If anything fails before
// or during the commit, the previously committed state stays authoritative.
type Orchestrator struct {
	store   ledgerStore
	lock    locker
	cache   invalidator
	workers int
	params  passbook.Params
	now     func() time.Time
}

func New(store ledgerStore, lock locker, cache invalidator, cfg *config.Config) *Orchestrator {
	workers := cfg.RecalcWorkers
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		store:   store,
		lock:    lock,
		cache:   cache,
		workers: workers,
		params: passbook.Params{
			MonthlyRate:       decimal.NewFromFloat(cfg.LoanInterestMonthlyPct),
			ClubStartedAt:     cfg.ClubStartedAt,
			MonthlyOffsetUnit: cfg.MonthlyOffsetUnit,
		},
		now: time.Now,
	}
}

// Full replays the entire ledger: every account passbook, the club treasury,
// and the monthly summaries. Used after destructive edits and for periodic
// consistency repair.
func (o *Orchestrator) Full(ctx context.Context) (*Pass, error) {
	return o.run(ctx, func(ctx context.Context, pass *Pass) error {
		return o.runFull(ctx, pass)
	})
}

// Targeted re-derives a single account's passbook from its full transaction
// history. Cheaper than Full, but never an incremental patch: the account's
// state is rebuilt from scratch. Distribution credits are a whole-ledger
// computation, so the previously committed DistributedReturns figure is
// carried over and refreshed only by the next Full pass.
func (o *Orchestrator) Targeted(ctx context.Context, accountID uuid.UUID) (*Pass, error) {
	return o.run(ctx, func(ctx context.Context, pass *Pass) error {
		return o.runTargeted(ctx, pass, accountID)
	})
}

// RecordTransaction is the incremental trigger for new ledger entries: the
// persist callback runs inside the same lock scope as the replay, so the
// insert cannot land in the middle of a concurrent pass, and a busy lock
// rejects the entry before anything is written. On success both touched
// accounts are re-derived from history and committed together.
func (o *Orchestrator) RecordTransaction(ctx context.Context, persist func(context.Context) (*domain.Transaction, error)) (*Pass, error) {
	return o.run(ctx, func(ctx context.Context, pass *Pass) error {
		t, err := persist(ctx)
		if err != nil {
			return err
		}
		return o.runTargeted(ctx, pass, t.FromID, t.ToID)
	})
}

// RemoveTransaction deletes a ledger entry and replays the whole ledger
// under one lock scope; every later passbook state may have depended on the
// removed row.
func (o *Orchestrator) RemoveTransaction(ctx context.Context, remove func(context.Context) error) (*Pass, error) {
	return o.run(ctx, func(ctx context.Context, pass *Pass) error {
		if err := remove(ctx); err != nil {
			return err
		}
		return o.runFull(ctx, pass)
	})
}

// RebuildSummaries regenerates the monthly snapshots only, leaving passbooks
// untouched.
func (o *Orchestrator) RebuildSummaries(ctx context.Context) (*Pass, error) {
	return o.run(ctx, func(ctx context.Context, pass *Pass) error {
		return o.runSummaries(ctx, pass)
	})
}

func (o *Orchestrator) run(ctx context.Context, fn func(context.Context, *Pass) error) (*Pass, error) {
	pass := &Pass{State: StateIdle, StartedAt: o.now()}

	err := o.lock.WithLock(ctx, func(ctx context.Context) error {
		return fn(ctx, pass)
	})
	pass.FinishedAt = o.now()

	if err != nil {
		pass.State = StateFailed
		return pass, err
	}

	pass.State = StateDone
	return pass, nil
}

func (o *Orchestrator) runFull(ctx context.Context, pass *Pass) error {
	log := logging.FromContext(ctx)
	asOf := o.now().UTC()

	pass.State = StateLoading
	accounts, err := o.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("runFull: %w", err)
	}
	txs, err := o.store.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("runFull: %w", err)
	}
	shares, err := o.store.ListProfitShares(ctx)
	if err != nil {
		return fmt.Errorf("runFull: %w", err)
	}
	passbook.SortTransactions(txs)

	pass.State = StateAggregating
	updates, anomalies, err := o.aggregateAll(ctx, accounts, txs, asOf)
	if err != nil {
		return fmt.Errorf("runFull: %w", err)
	}
	pass.Anomalies = anomalies

	if err := o.distribute(ctx, accounts, txs, updates, shares, asOf); err != nil {
		return fmt.Errorf("runFull: %w", err)
	}

	summaries := buildSummaries(accounts, txs, asOf)

	pass.State = StateCommitting
	if err := o.store.CommitRecalculation(ctx, updates, summaries); err != nil {
		return fmt.Errorf("runFull: commit: %w", err)
	}
	pass.Accounts = len(updates)

	o.invalidate(ctx, TagPassbooks, TagSummaries)

	log.Info("full recalculation committed",
		"accounts", len(updates),
		"transactions", len(txs),
		"anomalies", len(pass.Anomalies),
	)
	return nil
}

func (o *Orchestrator) runTargeted(ctx context.Context, pass *Pass, accountIDs ...uuid.UUID) error {
	log := logging.FromContext(ctx)
	asOf := o.now().UTC()

	pass.State = StateLoading

	seen := make(map[uuid.UUID]bool, len(accountIDs))
	updates := make(map[uuid.UUID]*domain.Passbook, len(accountIDs))
	tags := []string{TagPassbooks}

	for _, id := range accountIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		account, err := o.store.GetAccount(ctx, id)
		if err != nil {
			return fmt.Errorf("runTargeted: account %s: %w", id, err)
		}
		txs, err := o.store.ListTransactionsByAccount(ctx, id)
		if err != nil {
			return fmt.Errorf("runTargeted: %w", err)
		}
		passbook.SortTransactions(txs)

		pass.State = StateAggregating
		params := o.params
		params.AsOf = asOf

		pb, anomalies := passbook.Aggregate(account.ID, account.Kind, tenureOf(account), txs, params)
		pass.Anomalies = append(pass.Anomalies, anomalies...)
		if pb == nil {
			// Malformed history: keep the committed state, surface the anomaly.
			continue
		}

		prior, err := o.store.GetPassbook(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("runTargeted: prior passbook: %w", err)
		}
		if prior != nil && account.Kind == domain.AccountKindMember {
			pb.DistributedReturns = prior.DistributedReturns
		}

		updates[id] = pb
		tags = append(tags, passbookTag(id))
	}

	pass.State = StateCommitting
	if err := o.store.CommitRecalculation(ctx, updates, nil); err != nil {
		return fmt.Errorf("runTargeted: commit: %w", err)
	}
	pass.Accounts = len(updates)

	o.invalidate(ctx, tags...)

	log.Info("targeted recalculation committed", "accounts", len(updates), "anomalies", len(pass.Anomalies))
	return nil
}

func (o *Orchestrator) runSummaries(ctx context.Context, pass *Pass) error {
	asOf := o.now().UTC()

	pass.State = StateLoading
	accounts, err := o.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("runSummaries: %w", err)
	}
	txs, err := o.store.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("runSummaries: %w", err)
	}
	passbook.SortTransactions(txs)

	pass.State = StateAggregating
	summaries := buildSummaries(accounts, txs, asOf)

	pass.State = StateCommitting
	if err := o.store.CommitRecalculation(ctx, nil, summaries); err != nil {
		return fmt.Errorf("runSummaries: commit: %w", err)
	}

	o.invalidate(ctx, TagSummaries)
	return nil
}

// aggregateAll fans the per-account replay out across workers. Accounts are
// independent, so only the result slot assignment needs coordination; each
// goroutine writes to its own index.
func (o *Orchestrator) aggregateAll(ctx context.Context, accounts []domain.Account, txs []domain.Transaction, asOf time.Time) (map[uuid.UUID]*domain.Passbook, []domain.Anomaly, error) {
	byAccount := groupByAccount(accounts, txs)

	type result struct {
		pb        *domain.Passbook
		anomalies []domain.Anomaly
	}
	results := make([]result, len(accounts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for i := range accounts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			account := &accounts[i]
			params := o.params
			params.AsOf = asOf

			pb, anomalies := passbook.Aggregate(account.ID, account.Kind, tenureOf(account), byAccount[account.ID], params)
			results[i] = result{pb: pb, anomalies: anomalies}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	updates := make(map[uuid.UUID]*domain.Passbook, len(accounts))
	var anomalies []domain.Anomaly
	for _, r := range results {
		anomalies = append(anomalies, r.anomalies...)
		if r.pb != nil {
			updates[r.pb.AccountID] = r.pb
		}
	}
	return updates, anomalies, nil
}

// distribute runs the two cross-account passes: club returns across members
// and vendor profit across share links.
func (o *Orchestrator) distribute(ctx context.Context, accounts []domain.Account, txs []domain.Transaction, updates map[uuid.UUID]*domain.Passbook, shares []domain.VendorProfitShare, asOf time.Time) error {
	log := logging.FromContext(ctx)

	var clubID uuid.UUID
	var vendorIDs []uuid.UUID
	var stakes []passbook.MemberStake

	for i := range accounts {
		a := &accounts[i]
		switch a.Kind {
		case domain.AccountKindClub:
			clubID = a.ID
		case domain.AccountKindVendor:
			vendorIDs = append(vendorIDs, a.ID)
		case domain.AccountKindMember:
			pb := updates[a.ID]
			if pb == nil {
				continue
			}
			stakes = append(stakes, passbook.MemberStake{
				AccountID: a.ID,
				StartAt:   a.StartAt,
				EndAt:     a.EndAt,
				Deposits:  pb.In,
				Active:    a.Active,
			})
		}
	}

	if clubID != uuid.Nil {
		pool := undistributedReturns(clubID, txs)
		if pool > 0 {
			alloc, err := passbook.DistributeReturns(pool, stakes, asOf)
			switch {
			case errors.Is(err, domain.ErrNoEligibleMembers):
				log.Warn("returns pool left undistributed", "pool", pool)
			case err != nil:
				return fmt.Errorf("distribute: %w", err)
			default:
				for memberID, cut := range alloc {
					if pb := updates[memberID]; pb != nil {
						pb.DistributedReturns += cut
					}
				}
			}
		}
	}

	cuts, err := passbook.VendorCalc(updates, vendorIDs, shares)
	if err != nil {
		return fmt.Errorf("distribute: %w", err)
	}
	for memberID, cut := range cuts {
		if pb := updates[memberID]; pb != nil {
			pb.DistributedReturns += cut
		}
	}

	return nil
}

// undistributedReturns is what the club has received as investment returns
// minus what it has already paid out to members as returns or profit share.
// Distribution allocates only this remainder, so cash payouts recorded in
// the ledger never double-count against computed credits.
func undistributedReturns(clubID uuid.UUID, txs []domain.Transaction) int64 {
	var pool int64
	for i := range txs {
		t := &txs[i]
		switch t.Type {
		case domain.TransactionTypeReturn:
			if t.ToID == clubID {
				pool += t.Amount
			} else if t.FromID == clubID {
				pool -= t.Amount
			}
		case domain.TransactionTypeProfitShare:
			if t.FromID == clubID {
				pool -= t.Amount
			}
		}
	}
	if pool < 0 {
		return 0
	}
	return pool
}

func groupByAccount(accounts []domain.Account, txs []domain.Transaction) map[uuid.UUID][]domain.Transaction {
	known := make(map[uuid.UUID]bool, len(accounts))
	for i := range accounts {
		known[accounts[i].ID] = true
	}

	grouped := make(map[uuid.UUID][]domain.Transaction, len(accounts))
	for i := range txs {
		t := txs[i]
		if known[t.FromID] {
			grouped[t.FromID] = append(grouped[t.FromID], t)
		}
		if known[t.ToID] {
			grouped[t.ToID] = append(grouped[t.ToID], t)
		}
	}
	return grouped
}

func tenureOf(a *domain.Account) passbook.Tenure {
	return passbook.Tenure{StartAt: a.StartAt, EndAt: a.EndAt}
}

func passbookTag(id uuid.UUID) string {
	return "passbook:" + id.String()
}

// invalidate is best effort: the commit already succeeded, so a cache error
// must not fail the pass. Readers fall back to the fresh store state once
// entries expire.
func (o *Orchestrator) invalidate(ctx context.Context, tags ...string) {
	if err := o.cache.Invalidate(ctx, tags...); err != nil {
		logging.FromContext(ctx).Error("cache invalidation failed", "error", err, "tags", tags)
	}
}
