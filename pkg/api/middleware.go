package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"go.uber.org/zap"

	apiErrs "github.com/tonclub/hypersonic/pkg/api/errors"
	"github.com/tonclub/hypersonic/pkg/proto"
	"github.com/tonclub/hypersonic/pkg/state"
)

const (
	contractKeyHeader = "X-Contract-Key"
	senderHeader      = "X-Sender"
)

type authCtxKey struct{}

// CreateLoggerMiddleware creates a middleware that logs every served request with its
// status, size and latency.
func CreateLoggerMiddleware(l *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww, ok := w.(middleware.WrapResponseWriter)
			if !ok {
				ww = middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			}

			t1 := time.Now()
			defer func() {
				l.Info("ServedHttpRequest",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Duration("lat", time.Since(t1)),
					zap.Int("status", ww.Status()),
					zap.Int("size", ww.BytesWritten()),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}

func (a *API) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		begin := time.Now()

		metricApiTotalRequests.Inc()
		metricApiInFlight.Set(float64(a.inFlight.Inc()))

		ww, ok := w.(middleware.WrapResponseWriter)
		if !ok {
			ww = middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		}

		defer func() {
			metricApiInFlight.Set(float64(a.inFlight.Dec()))

			routePath := r.URL.Path
			if chiRouteContext := chi.RouteContext(r.Context()); chiRouteContext != nil {
				if updatedRoutePath := chiRouteContext.RoutePattern(); updatedRoutePath != "" {
					routePath = updatedRoutePath
				}
			}

			metricApiHits.WithLabelValues(strconv.Itoa(ww.Status()), routePath).Inc()
			metricApiRequestDuration.WithLabelValues(r.Method, routePath).Observe(time.Since(begin).Seconds())
		}()

		next.ServeHTTP(ww, r)
	})
}

func CreateHeadersMiddleware(headers map[string]string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for k, v := range headers {
				w.Header().Set(k, v)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func JsonContentTypeMiddleware(next http.Handler) http.Handler {
	return CreateHeadersMiddleware(map[string]string{
		"Content-Type": "application/json",
	})(next)
}

// createAuthMiddleware reads the caller's credentials from the request headers. Checking
// them is left to the ledger, which knows the current owner.
func createAuthMiddleware(errorHandler HandleErrorFunc) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := state.Auth{Key: r.Header.Get(contractKeyHeader)}
			if s := r.Header.Get(senderHeader); s != "" {
				sender, err := proto.NewWalletAddress(s)
				if err != nil {
					errorHandler(w, r, apiErrs.NewInvalidParameterError(senderHeader, err))
					return
				}
				auth.Sender = sender
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), authCtxKey{}, auth)))
		})
	}
}

func authFromContext(ctx context.Context) state.Auth {
	auth, _ := ctx.Value(authCtxKey{}).(state.Auth)
	return auth
}
