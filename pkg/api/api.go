package api

import (
	"context"
	"net"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/tonclub/hypersonic/pkg/planner"
	"github.com/tonclub/hypersonic/pkg/splitter"
	"github.com/tonclub/hypersonic/pkg/state"
)

// API exposes the ledger operations over HTTP.
type API struct {
	ledger   *state.Ledger
	planner  *planner.Planner
	splitter *splitter.Splitter
	logger   *zap.Logger
	inFlight atomic.Int64
	maxTxs   int
}

// NewAPI creates the API, splitter may be nil when admin withdrawals should not be split.
func NewAPI(ledger *state.Ledger, p *planner.Planner, s *splitter.Splitter, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		ledger:   ledger,
		planner:  p,
		splitter: s,
		logger:   logger,
		maxTxs:   DefaultMaxTransactionsLimit,
	}
}

func Run(ctx context.Context, address string, a *API, opts *RunOptions) error {
	if opts == nil {
		opts = DefaultRunOptions()
	}
	routes, err := a.routes(opts)
	if err != nil {
		return errors.Wrap(err, "failed to create routes")
	}
	apiServer := &http.Server{Addr: address, Handler: routes}

	l, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", address)
	}
	if opts.MaxConnections > 0 {
		l = newCappedListener(l, opts.MaxConnections, defaultQuotaWait)
	}

	go func() {
		<-ctx.Done()
		a.logger.Info("Shutting down API...")
		sctx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(sctx); err != nil {
			a.logger.Error("Failed to shutdown API server", zap.Error(err))
		}
	}()
	a.logger.Info("Starting API", zap.String("address", address))
	err = apiServer.Serve(l)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
