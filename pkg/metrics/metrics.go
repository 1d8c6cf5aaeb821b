// Package metrics exposes ledger counters to prometheus.
package metrics

import (
	"errors"
	"reflect"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stoewer/go-strcase"
)

const ledgerMetricsNamespace = "ledger"

const (
	outcomeCommitted = "committed"
	outcomeRejected  = "rejected"
)

var (
	metricLedgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ledgerMetricsNamespace,
			Name:      "operations",
			Help:      "Ledger operations by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	metricLedgerRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ledgerMetricsNamespace,
			Name:      "rejections",
			Help:      "Rejected ledger operations by error kind",
		},
		[]string{"kind", "error"},
	)

	metricDistributionOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ledgerMetricsNamespace,
			Name:      "distribution_outcomes",
			Help:      "Monthly distribution entries by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		metricLedgerOperations,
		metricLedgerRejections,
		metricDistributionOutcomes,
	)
}

// Label converts an operation or error name like "UpgradePlan" into "upgrade_plan".
func Label(name string) string {
	return strcase.SnakeCase(name)
}

// Operation counts a finished ledger operation.
func Operation(kind string, err error) {
	if err == nil {
		metricLedgerOperations.WithLabelValues(Label(kind), outcomeCommitted).Inc()
		return
	}
	metricLedgerOperations.WithLabelValues(Label(kind), outcomeRejected).Inc()
	metricLedgerRejections.WithLabelValues(Label(kind), Label(errorKind(err))).Inc()
}

func DistributionOutcome(outcome string) {
	metricDistributionOutcomes.WithLabelValues(outcome).Inc()
}

// errorKind names the innermost error type, "error" for plain errors.
func errorKind(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return "error"
	}
	if t.Name() == "fundamental" || t.Name() == "errorString" {
		return "error"
	}
	return t.Name()
}
