package planner

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tonclub/hypersonic/pkg/errs"
	"github.com/tonclub/hypersonic/pkg/proto"
	"github.com/tonclub/hypersonic/pkg/settings"
	"github.com/tonclub/hypersonic/pkg/state"
	"github.com/tonclub/hypersonic/pkg/types"
)

// Ledger is the part of state.Ledger the planner works with.
type Ledger interface {
	Snapshot() (*state.Snapshot, error)
	Settings() *settings.EngineSettings
	UpgradePlan(auth state.Auth, p proto.UpgradeProposal) (*proto.Member, error)
	SubscribeToMatrix(auth state.Auth, p proto.SubscribeProposal) (*proto.Member, error)
	MonthlyDistributionList(auth state.Auth, list []proto.Distribution) ([]proto.DistributionResult, error)
}

type RetryParams struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxTries        uint64
}

func DefaultRetryParams() RetryParams {
	return RetryParams{
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     500 * time.Millisecond,
		MaxTries:        5,
	}
}

type Planner struct {
	ledger  Ledger
	clock   types.Time
	logger  *zap.Logger
	retry   RetryParams
	workers int
}

func New(ledger Ledger, clock types.Time, logger *zap.Logger, retry RetryParams, workers int) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{ledger: ledger, clock: clock, logger: logger, retry: retry, workers: workers}
}

// Upgrade proposes an upgrade from a fresh snapshot and commits it.
func (p *Planner) Upgrade(auth state.Auth, wallet proto.WalletAddress, increment int) (*proto.Member, error) {
	snap, err := p.ledger.Snapshot()
	if err != nil {
		return nil, err
	}
	proposal, err := ProposeUpgrade(snap, p.ledger.Settings().Packages, wallet, increment)
	snap.Release()
	if err != nil {
		return nil, err
	}
	return p.ledger.UpgradePlan(auth, proposal)
}

func (p *Planner) newBackOff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.retry.InitialInterval
	bo.MaxInterval = p.retry.MaxInterval
	bo.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(bo, p.retry.MaxTries), ctx)
}

// Subscribe places wallet into the matrix. When another subscription takes the proposed slot
// first, the placement is recomputed from a new snapshot.
func (p *Planner) Subscribe(ctx context.Context, auth state.Auth, wallet proto.WalletAddress, t proto.SubscriptionType) (*proto.Member, error) {
	var out *proto.Member
	attempt := 0
	op := func() error {
		attempt++
		snap, err := p.ledger.Snapshot()
		if err != nil {
			return backoff.Permanent(err)
		}
		s := p.ledger.Settings()
		proposal, err := ProposeSubscription(snap, s.Subscriptions, snap.Root(), wallet, t)
		snap.Release()
		if err != nil {
			return backoff.Permanent(err)
		}
		m, err := p.ledger.SubscribeToMatrix(auth, proposal)
		if errors.Is(err, errs.SlotOccupied{}) {
			p.logger.Debug("Matrix slot taken, retrying placement",
				zap.Stringer("wallet", wallet),
				zap.Stringer("parent", proposal.Parent),
				zap.Stringer("position", proposal.Position),
				zap.Int("attempt", attempt),
			)
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		out = m
		return nil
	}
	if err := backoff.Retry(op, p.newBackOff(ctx)); err != nil {
		return nil, err
	}
	return out, nil
}

// MonthlyEntry is a single line of a monthly distribution run.
type MonthlyEntry struct {
	Distribution proto.Distribution
	PackageLevel proto.PackageLevel
	Result       proto.DistributionResult
}

// RunMonthly computes a distribution for every subscribed member from one snapshot and
// submits them in batches. The company position goes last.
func (p *Planner) RunMonthly(ctx context.Context, auth state.Auth) ([]MonthlyEntry, error) {
	s := p.ledger.Settings()
	snap, err := p.ledger.Snapshot()
	if err != nil {
		return nil, err
	}
	members, err := snap.SubscribedMembers()
	if err != nil {
		snap.Release()
		return nil, errors.Wrap(err, "failed to list subscribed members")
	}
	now := p.clock.Now()
	entries := make([]MonthlyEntry, 0, len(members))
	var company *MonthlyEntry
	for _, m := range members {
		if err := ctx.Err(); err != nil {
			snap.Release()
			return nil, err
		}
		e := MonthlyEntry{PackageLevel: m.PackageLevel}
		d, err := ProposeDistribution(ctx, snap, s.Subscriptions, s.SubtreeDepth, p.workers, m.Wallet, now)
		if err != nil {
			p.logger.Warn("Failed to compute distribution", zap.Stringer("wallet", m.Wallet), zap.Error(err))
			d = proto.Distribution{Wallet: m.Wallet, Username: m.Username}
			e.Result = proto.DistributionResult{Wallet: m.Wallet, Outcome: proto.OutcomeRejected, Error: err.Error()}
		}
		e.Distribution = d
		if m.Wallet == s.CompanyWallet {
			company = &e
			continue
		}
		entries = append(entries, e)
	}
	snap.Release()
	if company != nil {
		entries = append(entries, *company)
	}

	var (
		batch []proto.Distribution
		index []int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		res, err := p.ledger.MonthlyDistributionList(auth, batch)
		if err != nil {
			return err
		}
		if len(res) != len(batch) {
			return errors.Errorf("got %d results for %d distributions", len(res), len(batch))
		}
		for i, r := range res {
			entries[index[i]].Result = r
		}
		batch, index = batch[:0], index[:0]
		return nil
	}
	for i, e := range entries {
		if e.Result.Outcome == proto.OutcomeRejected {
			continue
		}
		batch = append(batch, e.Distribution)
		index = append(index, i)
		if len(batch) == s.DistributionBatchSize {
			if err := flush(); err != nil {
				return entries, err
			}
		}
	}
	if err := flush(); err != nil {
		return entries, err
	}
	p.logger.Info("Monthly distribution finished", zap.Int("members", len(entries)))
	return entries, nil
}
