package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/howeyc/gopass"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tonclub/hypersonic/pkg/api"
	"github.com/tonclub/hypersonic/pkg/keyvalue"
	"github.com/tonclub/hypersonic/pkg/libs/ntptime"
	"github.com/tonclub/hypersonic/pkg/planner"
	"github.com/tonclub/hypersonic/pkg/state"
	"github.com/tonclub/hypersonic/pkg/types"
	"github.com/tonclub/hypersonic/pkg/util/common"
)

const ntpRefreshInterval = 2 * time.Minute

func main() {
	cfg := new(config)
	cfg.parse()

	logger, err := common.SetupFilteredLogger(cfg.logLevel, cfg.logFilter)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.Sugar()
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(cfg, logger); err != nil {
		log.Errorf("Failed to run: %+v", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config, logger *zap.Logger) error {
	log := logger.Sugar()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interrupt := interruptListener(log)
	go func() {
		<-interrupt
		cancel()
	}()

	s := cfg.engineSettings()
	if cfg.promptKey {
		fmt.Print("Enter contract key: ")
		key, err := gopass.GetPasswd()
		if err != nil {
			return errors.Wrap(err, "failed to read contract key")
		}
		s.ContractKey = string(key)
	}
	if err := s.Validate(); err != nil {
		return errors.Wrap(err, "invalid engine settings")
	}

	clock, err := getNtp(ctx, cfg.disableNTP, cfg.ntpServer)
	if err != nil {
		return errors.Wrap(err, "failed to synchronize time")
	}

	dir := cfg.dataDir
	if dir == "" {
		if dir, err = common.GetStatePath(); err != nil {
			return errors.Wrap(err, "failed to get default data directory")
		}
	}
	kv, err := keyvalue.NewKeyVal(filepath.Join(dir, "ledger"), cfg.keyValueParams())
	if err != nil {
		return errors.Wrapf(err, "failed to open ledger database in %s", dir)
	}
	ledger, err := state.NewLedger(kv, s, clock, logger.Named("ledger"))
	if err != nil {
		_ = kv.Close()
		return err
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			log.Errorf("Failed to close ledger: %v", err)
		}
	}()
	log.Infof("Ledger opened at sequence %d", ledger.LastSeq())

	sp, err := cfg.splitter()
	if err != nil {
		return errors.Wrap(err, "invalid withdrawal split")
	}
	p := planner.New(ledger, clock, logger.Named("planner"), planner.DefaultRetryParams(), cfg.plannerWorkers)
	a := api.NewAPI(ledger, p, sp, logger.Named("api"))
	return api.Run(ctx, cfg.apiAddr, a, cfg.runOptions())
}

func getNtp(ctx context.Context, disable bool, server string) (types.Time, error) {
	if disable {
		return &ntptime.Stub{}, nil
	}
	tm, err := ntptime.TryNew(server, 10)
	if err != nil {
		return nil, err
	}
	go tm.Run(ctx, ntpRefreshInterval)
	return tm, nil
}
