package state

import (
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/tonclub/hypersonic/pkg/errs"
	"github.com/tonclub/hypersonic/pkg/keyvalue"
	"github.com/tonclub/hypersonic/pkg/lifecycle"
	"github.com/tonclub/hypersonic/pkg/metrics"
	"github.com/tonclub/hypersonic/pkg/proto"
	"github.com/tonclub/hypersonic/pkg/settings"
	"github.com/tonclub/hypersonic/pkg/types"
)

// Auth is attached to every operation. Key must be the contract key, admin operations
// additionally require Sender to be the current owner.
type Auth struct {
	Sender proto.WalletAddress
	Key    string
}

// Ledger is the authoritative state of the engine. Operations are applied one at a time,
// each one either fully committed in a single batch or rejected without changes.
type Ledger struct {
	mu        sync.Mutex
	kv        *keyvalue.KeyVal
	settings  *settings.EngineSettings
	keyDigest [blake2b.Size256]byte
	clock     types.Time
	lastSeq   atomic.Uint64
	logger    *zap.Logger
}

func NewLedger(kv *keyvalue.KeyVal, s *settings.EngineSettings, clock types.Time, logger *zap.Logger) (*Ledger, error) {
	if err := s.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid engine settings")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{
		kv:        kv,
		settings:  s,
		keyDigest: blake2b.Sum256([]byte(s.ContractKey)),
		clock:     clock,
		logger:    logger,
	}
	data, err := kv.Get(lastSeqKey.bytes())
	switch {
	case errors.Is(err, keyvalue.ErrNotFound):
		if err := l.bootstrap(); err != nil {
			return nil, errors.Wrap(err, "failed to bootstrap ledger")
		}
	case err != nil:
		return nil, errors.Wrap(err, "failed to load last sequence number")
	default:
		seq, err := bytesUint64(data)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load last sequence number")
		}
		l.lastSeq.Store(seq)
	}
	return l, nil
}

// bootstrap seeds an empty store with the company member as the matrix root.
func (l *Ledger) bootstrap() error {
	now := l.clock.Now()
	s := newOpState(l.kv)
	company := &proto.Member{
		Wallet:       l.settings.CompanyWallet,
		Username:     l.settings.CompanyUsername,
		PackageLevel: proto.MaxPackageLevel,
	}
	node := newMatrixNode(proto.MonthlyWithin30Days, "", now, l.settings.SubscriptionTerm)
	if err := lifecycle.New(company).Subscribe(node); err != nil {
		return err
	}
	s.create(company)
	s.setOwner(l.settings.Owner)
	if err := s.incUsers(); err != nil {
		return err
	}
	if err := s.incSubscribed(); err != nil {
		return err
	}
	start, err := safecast.ToUint64(now.Unix())
	if err != nil {
		return errors.Wrap(err, "invalid start date")
	}
	b := l.kv.NewBatch()
	b.Put(startDateKey.bytes(), uint64Bytes(start))
	return l.commit(s, b, TxRecord{Kind: TxBootstrap, Sender: l.settings.Owner, Wallet: company.Wallet, Timestamp: now})
}

func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.kv.Close()
}

func (l *Ledger) Settings() *settings.EngineSettings {
	return l.settings
}

// LastSeq is the sequence number of the last committed operation.
func (l *Ledger) LastSeq() uint64 {
	return l.lastSeq.Load()
}

func (l *Ledger) checkKey(auth Auth) error {
	d := blake2b.Sum256([]byte(auth.Key))
	if subtle.ConstantTimeCompare(d[:], l.keyDigest[:]) != 1 {
		return errs.NewUnauthorized("invalid contract key")
	}
	return nil
}

func (l *Ledger) checkAdmin(s *opState, auth Auth) error {
	if err := l.checkKey(auth); err != nil {
		return err
	}
	owner, err := s.currentOwner()
	if err != nil {
		return err
	}
	if auth.Sender != owner {
		return errs.NewUnauthorized(fmt.Sprintf("%q is not the owner", auth.Sender))
	}
	return nil
}

type opFunc func(s *opState, now time.Time) (TxRecord, error)

// errNothingToCommit is returned by an opFunc that accepted the request but has no changes to store.
var errNothingToCommit = errors.New("nothing to commit")

// apply runs op and commits its changes. Callers must hold l.mu.
func (l *Ledger) apply(kind TxKind, auth Auth, admin bool, op opFunc) (err error) {
	noop := false
	defer func() {
		if noop {
			return
		}
		metrics.Operation(kind.String(), err)
		if err != nil {
			l.logger.Info("Operation rejected",
				zap.Stringer("kind", kind),
				zap.Stringer("sender", auth.Sender),
				zap.Error(err),
			)
		}
	}()
	s := newOpState(l.kv)
	if admin {
		err = l.checkAdmin(s, auth)
	} else {
		err = l.checkKey(auth)
	}
	if err != nil {
		return errs.Extend(err, kind.String())
	}
	now := l.clock.Now()
	rec, err := op(s, now)
	if errors.Is(err, errNothingToCommit) {
		noop = true
		return nil
	}
	if err != nil {
		return errs.Extend(err, kind.String())
	}
	rec.Kind, rec.Sender, rec.Timestamp = kind, auth.Sender, now
	if err := l.commit(s, l.kv.NewBatch(), rec); err != nil {
		l.logger.Error("Failed to commit operation", zap.Stringer("kind", kind), zap.Error(err))
		return err
	}
	return nil
}

func (l *Ledger) commit(s *opState, b *keyvalue.Batch, rec TxRecord) error {
	seq := l.lastSeq.Load() + 1
	rec.Seq = seq
	id, err := rec.digestID()
	if err != nil {
		return err
	}
	rec.ID = id
	data, err := marshalRecord(rec)
	if err != nil {
		return err
	}
	if err := s.writeTo(b); err != nil {
		return err
	}
	b.Put(txKey{seq: seq}.bytes(), data)
	b.Put(lastSeqKey.bytes(), uint64Bytes(seq))
	if err := l.kv.Flush(b); err != nil {
		return errors.Wrapf(err, "failed to commit %s", rec.Kind)
	}
	l.lastSeq.Store(seq)
	l.logger.Debug("Operation committed",
		zap.Uint64("seq", seq),
		zap.String("id", rec.ID),
		zap.Stringer("kind", rec.Kind),
		zap.Stringer("wallet", rec.Wallet),
		zap.Stringer("amount", rec.Amount),
	)
	return nil
}

// Member returns the committed record of wallet.
func (l *Ledger) Member(wallet proto.WalletAddress) (*proto.Member, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return loadMember(l.kv, wallet)
}

type Summary struct {
	StartDate               time.Time           `json:"startDate"`
	NumberOfUsers           uint64              `json:"numberOfUsers"`
	NumberOfSubscribedUsers uint64              `json:"numberOfSubscribedUsers"`
	Owner                   proto.WalletAddress `json:"owner"`
	CompanyWallet           proto.WalletAddress `json:"companyWallet"`
	CompanyBalance          proto.Amount        `json:"companyBalance"`
	LastSeq                 uint64              `json:"lastSeq"`
}

func (l *Ledger) Summary() (Summary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := newOpState(l.kv)
	start, err := s.loadUint64(startDateKey)
	if err != nil {
		return Summary{}, errors.Wrap(err, "failed to load start date")
	}
	users, err := s.loadUint64(usersCounterKey)
	if err != nil {
		return Summary{}, errors.Wrap(err, "failed to load users counter")
	}
	subscribed, err := s.loadUint64(subscribedCounterKey)
	if err != nil {
		return Summary{}, errors.Wrap(err, "failed to load subscribed users counter")
	}
	owner, err := s.currentOwner()
	if err != nil {
		return Summary{}, err
	}
	company, err := s.companyBalance()
	if err != nil {
		return Summary{}, err
	}
	startUnix, err := safecast.ToInt64(start)
	if err != nil {
		return Summary{}, errors.Wrap(err, "invalid start date")
	}
	return Summary{
		StartDate:               time.Unix(startUnix, 0).UTC(),
		NumberOfUsers:           users,
		NumberOfSubscribedUsers: subscribed,
		Owner:                   owner,
		CompanyWallet:           l.settings.CompanyWallet,
		CompanyBalance:          company,
		LastSeq:                 l.lastSeq.Load(),
	}, nil
}
