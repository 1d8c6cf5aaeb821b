package api

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type HandleErrorFunc func(w http.ResponseWriter, r *http.Request, err error)
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

func toHTTPHandlerFunc(handler HandlerFunc, errorHandler HandleErrorFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		err := handler(writer, request)
		if err != nil {
			errorHandler(writer, request, err)
		}
	}
}

func (a *API) routes(opts *RunOptions) (chi.Router, error) {
	r := chi.NewRouter()

	errHandler := NewErrorHandler(a.logger)

	if opts.UseRealIPMiddleware {
		// for nginx/haproxy specific headers
		r.Use(middleware.RealIP)
	}
	if opts.RequestIDMiddleware {
		r.Use(middleware.RequestID)
	}
	if opts.CollectMetrics {
		r.Use(a.metricsMiddleware)
	}
	if opts.RateLimiterOpts != nil {
		rateLimiter, err := createRateLimiter(opts.RateLimiterOpts, errHandler.Handle)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		r.Use(rateLimiter.RateLimit)
	}
	if opts.LogHttpRequestOpts {
		r.Use(CreateLoggerMiddleware(a.logger))
	}
	if opts.RouteNotFoundHandler != nil {
		r.NotFound(opts.RouteNotFoundHandler)
	}
	if opts.MaxTransactionsLimit > 0 {
		a.maxTxs = opts.MaxTransactionsLimit
	}

	wrapper := func(handlerFunc HandlerFunc) http.HandlerFunc {
		return toHTTPHandlerFunc(handlerFunc, errHandler.Handle)
	}

	if opts.EnableHeartbeatRoute {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			if _, err := w.Write([]byte("OK")); err != nil {
				a.logger.Error("Can't write 'OK' to ResponseWriter", zap.Error(err))
			}
		})
	}
	if opts.EnableMetricsRoute {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(JsonContentTypeMiddleware, createAuthMiddleware(errHandler.Handle))

		r.Get("/summary", wrapper(a.Summary))
		r.Get("/transactions", wrapper(a.Transactions))
		r.Get("/duplicate-invites", wrapper(a.DuplicateInvites))

		r.Post("/register", wrapper(a.Register))

		r.Route("/members/{wallet}", func(r chi.Router) {
			r.Get("/", wrapper(a.Member))
			r.Post("/deposit", wrapper(a.Deposit))
			r.Post("/withdraw", wrapper(a.Withdraw))
			r.Post("/upgrade", wrapper(a.Upgrade))
			r.Post("/subscribe", wrapper(a.Subscribe))
			r.Get("/proposals/upgrade", wrapper(a.ProposeUpgrade))
			r.Get("/proposals/subscribe", wrapper(a.ProposeSubscription))
		})

		r.Route("/commit", func(r chi.Router) {
			r.Post("/upgrade", wrapper(a.CommitUpgrade))
			r.Post("/subscribe", wrapper(a.CommitSubscription))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/preregister", wrapper(a.PreRegister))
			r.Post("/withdraw", wrapper(a.AdminWithdrawal))
			r.Post("/owner", wrapper(a.ChangeOwner))
			r.Post("/distributions", wrapper(a.DistributionList))
			r.Post("/distributions/run", wrapper(a.RunMonthly))
		})
	})

	return r, nil
}
