package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ccoveille/go-safecast"
	"github.com/go-chi/chi"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	apiErrs "github.com/tonclub/hypersonic/pkg/api/errors"
	"github.com/tonclub/hypersonic/pkg/planner"
	"github.com/tonclub/hypersonic/pkg/proto"
	"github.com/tonclub/hypersonic/pkg/report"
	"github.com/tonclub/hypersonic/pkg/splitter"
	"github.com/tonclub/hypersonic/pkg/state"
)

const defaultTransactionsLimit = 100

type RegisterRequest struct {
	Wallet   proto.WalletAddress   `json:"wallet"`
	Username string                `json:"username"`
	Upline   []proto.WalletAddress `json:"upline"`
}

type AmountRequest struct {
	Amount proto.Amount `json:"amount"`
}

type UpgradeRequest struct {
	Increment int `json:"increment"`
}

type SubscribeRequest struct {
	SubscriptionType proto.SubscriptionType `json:"subscriptionType"`
}

type OwnerRequest struct {
	Owner proto.WalletAddress `json:"owner"`
}

type AdminWithdrawalResponse struct {
	CompanyBalance proto.Amount     `json:"companyBalance"`
	Shares         []splitter.Share `json:"shares,omitempty"`
}

type MonthlyEntryResponse struct {
	proto.Distribution
	PackageLevel proto.PackageLevel        `json:"packageLevel"`
	Outcome      proto.DistributionOutcome `json:"outcome"`
	Error        string                    `json:"error,omitempty"`
}

func trySendJson(w http.ResponseWriter, v any) error {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return errors.Wrap(err, "failed to marshal response to JSON")
	}
	return nil
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apiErrs.ErrWrongJSON
	}
	return nil
}

func walletParam(r *http.Request) (proto.WalletAddress, error) {
	w, err := proto.NewWalletAddress(chi.URLParam(r, "wallet"))
	if err != nil {
		return "", apiErrs.NewInvalidParameterError("wallet", err)
	}
	return w, nil
}

func uintQuery(r *http.Request, name string, def uint64) (uint64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, apiErrs.NewInvalidParameterError(name, err)
	}
	return v, nil
}

func (a *API) Summary(w http.ResponseWriter, _ *http.Request) error {
	s, err := a.ledger.Summary()
	if err != nil {
		return err
	}
	return trySendJson(w, s)
}

func (a *API) Member(w http.ResponseWriter, r *http.Request) error {
	wallet, err := walletParam(r)
	if err != nil {
		return err
	}
	m, err := a.ledger.Member(wallet)
	if err != nil {
		return err
	}
	return trySendJson(w, m)
}

func (a *API) Transactions(w http.ResponseWriter, r *http.Request) error {
	from, err := uintQuery(r, "from", 1)
	if err != nil {
		return err
	}
	limit, err := uintQuery(r, "limit", defaultTransactionsLimit)
	if err != nil {
		return err
	}
	if limit > uint64(a.maxTxs) {
		return apiErrs.NewTooBigArrayAllocationError(a.maxTxs)
	}
	snap, err := a.ledger.Snapshot()
	if err != nil {
		return err
	}
	defer snap.Release()
	txs, err := snap.Transactions(from, int(limit))
	if err != nil {
		return err
	}
	if txs == nil {
		txs = []state.TxRecord{}
	}
	return trySendJson(w, txs)
}

func (a *API) DuplicateInvites(w http.ResponseWriter, _ *http.Request) error {
	snap, err := a.ledger.Snapshot()
	if err != nil {
		return err
	}
	defer snap.Release()
	d, err := report.DuplicateInvites(snap)
	if err != nil {
		return err
	}
	if d == nil {
		d = []report.Duplicate{}
	}
	return trySendJson(w, d)
}

func (a *API) Register(w http.ResponseWriter, r *http.Request) error {
	req := new(RegisterRequest)
	if err := decodeBody(r, req); err != nil {
		return err
	}
	m, err := a.ledger.Register(authFromContext(r.Context()), req.Wallet, req.Username, req.Upline)
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusCreated)
	return trySendJson(w, m)
}

func (a *API) Deposit(w http.ResponseWriter, r *http.Request) error {
	return a.changeBalance(w, r, a.ledger.Deposit)
}

func (a *API) Withdraw(w http.ResponseWriter, r *http.Request) error {
	return a.changeBalance(w, r, a.ledger.Withdraw)
}

type balanceOp func(auth state.Auth, wallet proto.WalletAddress, amount proto.Amount) (*proto.Member, error)

func (a *API) changeBalance(w http.ResponseWriter, r *http.Request, op balanceOp) error {
	wallet, err := walletParam(r)
	if err != nil {
		return err
	}
	req := new(AmountRequest)
	if err := decodeBody(r, req); err != nil {
		return err
	}
	m, err := op(authFromContext(r.Context()), wallet, req.Amount)
	if err != nil {
		return err
	}
	return trySendJson(w, m)
}

func (a *API) ProposeUpgrade(w http.ResponseWriter, r *http.Request) error {
	wallet, err := walletParam(r)
	if err != nil {
		return err
	}
	inc, err := uintQuery(r, "increment", 1)
	if err != nil {
		return err
	}
	increment, err := safecast.ToInt(inc)
	if err != nil {
		return apiErrs.NewInvalidParameterError("increment", err)
	}
	snap, err := a.ledger.Snapshot()
	if err != nil {
		return err
	}
	defer snap.Release()
	p, err := planner.ProposeUpgrade(snap, a.ledger.Settings().Packages, wallet, increment)
	if err != nil {
		return err
	}
	return trySendJson(w, p)
}

func (a *API) CommitUpgrade(w http.ResponseWriter, r *http.Request) error {
	p := new(proto.UpgradeProposal)
	if err := decodeBody(r, p); err != nil {
		return err
	}
	m, err := a.ledger.UpgradePlan(authFromContext(r.Context()), *p)
	if err != nil {
		return err
	}
	return trySendJson(w, m)
}

func (a *API) Upgrade(w http.ResponseWriter, r *http.Request) error {
	wallet, err := walletParam(r)
	if err != nil {
		return err
	}
	req := &UpgradeRequest{Increment: 1}
	if err := decodeBody(r, req); err != nil {
		return err
	}
	m, err := a.planner.Upgrade(authFromContext(r.Context()), wallet, req.Increment)
	if err != nil {
		return err
	}
	return trySendJson(w, m)
}

func (a *API) ProposeSubscription(w http.ResponseWriter, r *http.Request) error {
	wallet, err := walletParam(r)
	if err != nil {
		return err
	}
	t, err := proto.NewSubscriptionTypeFromString(r.URL.Query().Get("subscriptionType"))
	if err != nil {
		return apiErrs.NewInvalidParameterError("subscriptionType", err)
	}
	snap, err := a.ledger.Snapshot()
	if err != nil {
		return err
	}
	defer snap.Release()
	p, err := planner.ProposeSubscription(snap, a.ledger.Settings().Subscriptions, snap.Root(), wallet, t)
	if err != nil {
		return err
	}
	return trySendJson(w, p)
}

func (a *API) CommitSubscription(w http.ResponseWriter, r *http.Request) error {
	p := new(proto.SubscribeProposal)
	if err := decodeBody(r, p); err != nil {
		return err
	}
	m, err := a.ledger.SubscribeToMatrix(authFromContext(r.Context()), *p)
	if err != nil {
		return err
	}
	return trySendJson(w, m)
}

func (a *API) Subscribe(w http.ResponseWriter, r *http.Request) error {
	wallet, err := walletParam(r)
	if err != nil {
		return err
	}
	req := new(SubscribeRequest)
	if err := decodeBody(r, req); err != nil {
		return err
	}
	m, err := a.planner.Subscribe(r.Context(), authFromContext(r.Context()), wallet, req.SubscriptionType)
	if err != nil {
		return err
	}
	return trySendJson(w, m)
}

func (a *API) PreRegister(w http.ResponseWriter, r *http.Request) error {
	req := new(proto.PreRegistration)
	if err := decodeBody(r, req); err != nil {
		return err
	}
	m, err := a.ledger.PreRegisterMember(authFromContext(r.Context()), *req)
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusCreated)
	return trySendJson(w, m)
}

func (a *API) AdminWithdrawal(w http.ResponseWriter, r *http.Request) error {
	req := new(AmountRequest)
	if err := decodeBody(r, req); err != nil {
		return err
	}
	rest, err := a.ledger.AdminWithdrawal(authFromContext(r.Context()), req.Amount)
	if err != nil {
		return err
	}
	rs := AdminWithdrawalResponse{CompanyBalance: rest}
	if a.splitter != nil {
		rs.Shares = a.splitter.Split(req.Amount)
	}
	return trySendJson(w, rs)
}

func (a *API) ChangeOwner(w http.ResponseWriter, r *http.Request) error {
	req := new(OwnerRequest)
	if err := decodeBody(r, req); err != nil {
		return err
	}
	if err := a.ledger.ChangeOwner(authFromContext(r.Context()), req.Owner); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (a *API) DistributionList(w http.ResponseWriter, r *http.Request) error {
	var list []proto.Distribution
	if err := decodeBody(r, &list); err != nil {
		return err
	}
	res, err := a.ledger.MonthlyDistributionList(authFromContext(r.Context()), list)
	if err != nil {
		return err
	}
	return trySendJson(w, res)
}

func (a *API) RunMonthly(w http.ResponseWriter, r *http.Request) error {
	entries, err := a.planner.RunMonthly(r.Context(), authFromContext(r.Context()))
	if err != nil {
		a.logger.Warn("Monthly distribution stopped", zap.Int("entries", len(entries)), zap.Error(err))
		return err
	}
	rs := make([]MonthlyEntryResponse, len(entries))
	for i, e := range entries {
		rs[i] = MonthlyEntryResponse{
			Distribution: e.Distribution,
			PackageLevel: e.PackageLevel,
			Outcome:      e.Result.Outcome,
			Error:        e.Result.Error,
		}
	}
	return trySendJson(w, rs)
}
