package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxConnections         = 128
	DefaultRateLimiterStorageSize = 64 * 1024 // 64 KB
	DefaultMaxTransactionsLimit   = 1000
	DefaultShutdownTimeout        = 5 * time.Second
)

type RunOptions struct {
	RateLimiterOpts      *RateLimiterOptions
	LogHttpRequestOpts   bool
	CollectMetrics       bool
	UseRealIPMiddleware  bool
	RequestIDMiddleware  bool
	EnableHeartbeatRoute bool
	EnableMetricsRoute   bool
	RouteNotFoundHandler func(w http.ResponseWriter, r *http.Request)
	MaxConnections       int
	MaxTransactionsLimit int
	ShutdownTimeout      time.Duration
}

type RateLimiterOptions struct {
	MemoryCacheSize      int
	MaxRequestsPerSecond int
	MaxBurst             int
}

func DefaultRunOptions() *RunOptions {
	return &RunOptions{
		RateLimiterOpts: &RateLimiterOptions{
			MemoryCacheSize:      DefaultRateLimiterStorageSize,
			MaxRequestsPerSecond: 10,
			MaxBurst:             20,
		},
		LogHttpRequestOpts:   false,
		EnableHeartbeatRoute: true,
		EnableMetricsRoute:   true,
		UseRealIPMiddleware:  true,
		RequestIDMiddleware:  true,
		CollectMetrics:       true,
		RouteNotFoundHandler: func(w http.ResponseWriter, r *http.Request) {
			zap.S().Debugf("Route not found %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		},
		MaxConnections:       DefaultMaxConnections,
		MaxTransactionsLimit: DefaultMaxTransactionsLimit,
		ShutdownTimeout:      DefaultShutdownTimeout,
	}
}
