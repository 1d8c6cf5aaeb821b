package main

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

var interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// interruptListener closes the returned channel on the first signal and logs the repeated ones.
func interruptListener(log *zap.SugaredLogger) <-chan struct{} {
	r := make(chan struct{})

	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, interruptSignals...)
		sig := <-signals
		log.Infof("Caught signal '%s', shutting down...", sig)
		close(r)
		for sig := range signals {
			log.Infof("Caught signal '%s' again, already shutting down", sig)
		}
	}()
	return r
}
