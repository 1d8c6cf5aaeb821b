package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/howeyc/gopass"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tonclub/hypersonic/pkg/keyvalue"
	"github.com/tonclub/hypersonic/pkg/libs/ntptime"
	"github.com/tonclub/hypersonic/pkg/planner"
	"github.com/tonclub/hypersonic/pkg/proto"
	"github.com/tonclub/hypersonic/pkg/report"
	"github.com/tonclub/hypersonic/pkg/settings"
	"github.com/tonclub/hypersonic/pkg/state"
	"github.com/tonclub/hypersonic/pkg/util/common"
)

type options struct {
	logLevel      string
	dataDir       string
	output        string
	sender        string
	companyWallet string
	ownerWallet   string
	promptKey     bool
	workers       int
	dryRun        bool
	timeout       time.Duration
}

func main() {
	opts := options{}
	flag.StringVar(&opts.logLevel, "log-level", "INFO", "Logging level. Supported levels: DEBUG, INFO, WARN, ERROR, FATAL.")
	flag.StringVarP(&opts.dataDir, "data-dir", "d", "", "Path to the ledger database, defaults to ~/.hypersonic.")
	flag.StringVarP(&opts.output, "output", "o", "", "CSV report path, defaults to distribution-<date>.csv.")
	flag.StringVarP(&opts.sender, "sender", "s", "", "Wallet of the current owner submitting the distribution.")
	flag.StringVar(&opts.companyWallet, "company-wallet", "", "Company wallet the ledger was created with.")
	flag.StringVar(&opts.ownerWallet, "owner-wallet", "", "Initial owner wallet the ledger was created with.")
	flag.BoolVar(&opts.promptKey, "prompt-key", false, "Read the contract key from the terminal instead of the environment.")
	flag.IntVarP(&opts.workers, "workers", "w", 4, "Number of subtrees collected in parallel.")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "Only report duplicate invites, don't distribute.")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Minute, "Maximum duration of the run.")
	flag.Parse()

	logger, log := common.SetupLogger(opts.logLevel)
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(opts, logger); err != nil {
		log.Errorf("Distribution failed: %+v", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(opts options, logger *zap.Logger) error {
	log := logger.Sugar()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, opts.timeout)
	defer cancelTimeout()

	s := settings.DefaultEngineSettings()
	settings.ApplySettings(s, func(s *settings.EngineSettings) {
		s.CompanyWallet = proto.WalletAddress(opts.companyWallet)
		s.Owner = proto.WalletAddress(opts.ownerWallet)
	}, settings.FromEnviron)
	if opts.promptKey {
		fmt.Print("Enter contract key: ")
		key, err := gopass.GetPasswd()
		if err != nil {
			return errors.Wrap(err, "failed to read contract key")
		}
		s.ContractKey = string(key)
	}
	sender, err := proto.NewWalletAddress(opts.sender)
	if err != nil {
		return errors.Wrap(err, "invalid sender")
	}

	dir := opts.dataDir
	if dir == "" {
		if dir, err = common.GetStatePath(); err != nil {
			return errors.Wrap(err, "failed to get default data directory")
		}
	}
	kv, err := keyvalue.NewKeyVal(filepath.Join(dir, "ledger"), keyvalue.DefaultParams())
	if err != nil {
		return errors.Wrapf(err, "failed to open ledger database in %s", dir)
	}
	clock := &ntptime.Stub{}
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

	if err := reportDuplicates(ledger, log); err != nil {
		return err
	}
	if opts.dryRun {
		return nil
	}

	p := planner.New(ledger, clock, logger.Named("planner"), planner.DefaultRetryParams(), opts.workers)
	auth := state.Auth{Sender: sender, Key: s.ContractKey}
	defer common.TimeTrack(time.Now(), "Monthly distribution")
	entries, runErr := p.RunMonthly(ctx, auth)
	if len(entries) == 0 {
		return runErr
	}

	out := opts.output
	if out == "" {
		out = fmt.Sprintf("distribution-%s.csv", clock.Now().UTC().Format("2006-01-02"))
	}
	if err := report.WriteDistributionCSV(afero.NewOsFs(), out, entries); err != nil {
		return err
	}
	counts := make(map[proto.DistributionOutcome]int)
	for _, e := range entries {
		counts[e.Result.Outcome]++
	}
	log.Infof("Report of %d members written to %s: %d covered, %d in grace period, %d expired, %d skipped, %d rejected",
		len(entries), out,
		counts[proto.OutcomeFeeCovered], counts[proto.OutcomeGracePeriod], counts[proto.OutcomeExpired],
		counts[proto.OutcomeSkipped], counts[proto.OutcomeRejected])
	return runErr
}

func reportDuplicates(ledger *state.Ledger, log *zap.SugaredLogger) error {
	snap, err := ledger.Snapshot()
	if err != nil {
		return err
	}
	defer snap.Release()
	duplicates, err := report.DuplicateInvites(snap)
	if err != nil {
		return errors.Wrap(err, "failed to look for duplicate invites")
	}
	for _, d := range duplicates {
		log.Warnf("Wallet %s is invited by %v", d.Wallet, d.Inviters)
	}
	return nil
}
