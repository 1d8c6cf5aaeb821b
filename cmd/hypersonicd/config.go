package main

import (
	"time"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/tonclub/hypersonic/pkg/api"
	"github.com/tonclub/hypersonic/pkg/keyvalue"
	"github.com/tonclub/hypersonic/pkg/proto"
	"github.com/tonclub/hypersonic/pkg/settings"
	"github.com/tonclub/hypersonic/pkg/splitter"
)

type config struct {
	logLevel  string
	logFilter string
	dataDir   string
	apiAddr   string

	companyWallet  string
	ownerWallet    string
	promptKey      bool
	subtreeDepth   int
	term           time.Duration
	batchSize      int
	plannerWorkers int

	daoWallets      []string
	expensesWallet  string
	disableNTP      bool
	ntpServer       string
	cacheSize       int
	bloomN          int
	logHTTP         bool
	rateLimit       int
	rateBurst       int
	maxConnections  int
	maxTransactions int
}

func (c *config) parse() {
	flag.StringVar(&c.logLevel, "log-level", "INFO", "Logging level. Supported levels: DEBUG, INFO, WARN, ERROR, FATAL.")
	flag.StringVar(&c.logFilter, "log-filter", "", "Optional zapfilter rules, e.g. \"debug:planner info+:*\".")
	flag.StringVarP(&c.dataDir, "data-dir", "d", "", "Path to the ledger database, defaults to ~/.hypersonic.")
	flag.StringVarP(&c.apiAddr, "address", "a", "127.0.0.1:8080", "Address to bind the HTTP API.")
	flag.StringVar(&c.companyWallet, "company-wallet", "", "Company wallet, the root of the referral tree and the matrix.")
	flag.StringVar(&c.ownerWallet, "owner-wallet", "", "Initial administrator wallet.")
	flag.BoolVar(&c.promptKey, "prompt-key", false, "Read the contract key from the terminal instead of the environment.")
	flag.IntVar(&c.subtreeDepth, "subtree-depth", settings.DefaultSubtreeDepth, "Depth of matrix subtrees used in monthly distributions.")
	flag.DurationVar(&c.term, "subscription-term", settings.DefaultSubscriptionTerm, "Matrix subscription term.")
	flag.IntVar(&c.batchSize, "distribution-batch", settings.DefaultDistributionBatchSize, "Number of distributions submitted at once.")
	flag.IntVar(&c.plannerWorkers, "planner-workers", 4, "Number of subtrees collected in parallel.")
	flag.StringSliceVar(&c.daoWallets, "dao-wallets", nil, "Three DAO wallets that receive 30% of every admin withdrawal each.")
	flag.StringVar(&c.expensesWallet, "expenses-wallet", "", "Wallet that receives the rest of every admin withdrawal.")
	flag.BoolVar(&c.disableNTP, "disable-ntp", false, "Use the system clock instead of NTP.")
	flag.StringVar(&c.ntpServer, "ntp-server", "pool.ntp.org", "NTP server to synchronize the ledger clock with.")
	flag.IntVar(&c.cacheSize, "cache-size", keyvalue.DefaultParams().Size, "Ledger cache size in bytes.")
	flag.IntVar(&c.bloomN, "bloom-size", keyvalue.DefaultParams().N, "Expected number of ledger keys for the bloom filter.")
	flag.BoolVar(&c.logHTTP, "log-http", false, "Log every served HTTP request.")
	flag.IntVar(&c.rateLimit, "rate-limit", 10, "Maximum HTTP requests per second from a single address, 0 disables the limit.")
	flag.IntVar(&c.rateBurst, "rate-burst", 20, "HTTP requests burst from a single address.")
	flag.IntVar(&c.maxConnections, "max-connections", api.DefaultMaxConnections, "Maximum number of simultaneous HTTP connections.")
	flag.IntVar(&c.maxTransactions, "max-transactions", api.DefaultMaxTransactionsLimit, "Maximum number of transactions returned at once.")
	flag.Parse()
}

func (c *config) engineSettings() *settings.EngineSettings {
	s := settings.DefaultEngineSettings()
	settings.ApplySettings(s, func(s *settings.EngineSettings) {
		s.CompanyWallet = proto.WalletAddress(c.companyWallet)
		s.Owner = proto.WalletAddress(c.ownerWallet)
		s.SubtreeDepth = c.subtreeDepth
		s.SubscriptionTerm = c.term
		s.DistributionBatchSize = c.batchSize
	}, settings.FromEnviron)
	return s
}

func (c *config) keyValueParams() keyvalue.Params {
	p := keyvalue.DefaultParams()
	p.Size = c.cacheSize
	p.N = c.bloomN
	return p
}

// splitter returns nil if no DAO wallets are configured.
func (c *config) splitter() (*splitter.Splitter, error) {
	if len(c.daoWallets) == 0 && c.expensesWallet == "" {
		return nil, nil
	}
	dao := make([]proto.WalletAddress, len(c.daoWallets))
	for i, w := range c.daoWallets {
		a, err := proto.NewWalletAddress(w)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid DAO wallet #%d", i+1)
		}
		dao[i] = a
	}
	return splitter.New(dao, proto.WalletAddress(c.expensesWallet))
}

func (c *config) runOptions() *api.RunOptions {
	opts := api.DefaultRunOptions()
	opts.LogHttpRequestOpts = c.logHTTP
	opts.MaxConnections = c.maxConnections
	opts.MaxTransactionsLimit = c.maxTransactions
	if c.rateLimit > 0 {
		opts.RateLimiterOpts.MaxRequestsPerSecond = c.rateLimit
		opts.RateLimiterOpts.MaxBurst = c.rateBurst
	} else {
		opts.RateLimiterOpts = nil
	}
	return opts
}
