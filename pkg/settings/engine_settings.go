package settings

import (
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/tonclub/hypersonic/pkg/proto"
)

const (
	DefaultSubtreeDepth          = 10
	DefaultSubscriptionTerm      = 365 * 24 * time.Hour
	DefaultDistributionBatchSize = 100
	DefaultCompanyUsername       = "company"

	contractKeyEnv   = "HYPERSONIC_CONTRACT_KEY"
	companyWalletEnv = "HYPERSONIC_COMPANY_WALLET"
	ownerWalletEnv   = "HYPERSONIC_OWNER_WALLET"
)

type EngineSettings struct {
	Packages      proto.PackageTable
	Subscriptions proto.SubscriptionPrices

	CompanyWallet   proto.WalletAddress
	CompanyUsername string
	// Owner is the initial administrator, it can be changed later with ChangeOwner.
	Owner       proto.WalletAddress
	ContractKey string

	SubtreeDepth          int
	SubscriptionTerm      time.Duration
	DistributionBatchSize int
}

func DefaultEngineSettings() *EngineSettings {
	return &EngineSettings{
		Packages:              proto.DefaultPackageTable(),
		Subscriptions:         proto.DefaultSubscriptionPrices(),
		CompanyUsername:       DefaultCompanyUsername,
		SubtreeDepth:          DefaultSubtreeDepth,
		SubscriptionTerm:      DefaultSubscriptionTerm,
		DistributionBatchSize: DefaultDistributionBatchSize,
	}
}

func (s *EngineSettings) Validate() error {
	if s.CompanyWallet.Empty() {
		return errors.New("empty company wallet")
	}
	if s.Owner.Empty() {
		return errors.New("empty owner wallet")
	}
	if len(s.ContractKey) == 0 {
		return errors.New("empty contract key")
	}
	if s.SubtreeDepth <= 0 {
		return errors.Errorf("invalid subtree depth %d", s.SubtreeDepth)
	}
	if s.SubscriptionTerm <= 0 {
		return errors.Errorf("invalid subscription term %s", s.SubscriptionTerm)
	}
	if s.DistributionBatchSize <= 0 {
		return errors.Errorf("invalid distribution batch size %d", s.DistributionBatchSize)
	}
	if err := s.Packages.Validate(); err != nil {
		return errors.Wrap(err, "invalid package table")
	}
	for _, t := range []proto.SubscriptionType{
		proto.YearlyWithin30Days, proto.YearlyAfter30Days, proto.MonthlyWithin30Days, proto.MonthlyAfter30Days,
	} {
		if _, err := s.Subscriptions.Price(t); err != nil {
			return errors.Wrap(err, "invalid subscription prices")
		}
	}
	return nil
}

// FromEnviron fills the values that are not set yet from the process environment.
func FromEnviron(s *EngineSettings) {
	lookupEnv(s, os.LookupEnv)
}

func lookupEnv(s *EngineSettings, lookup func(string) (string, bool)) {
	if v, ok := lookup(contractKeyEnv); ok && s.ContractKey == "" {
		s.ContractKey = v
	}
	if v, ok := lookup(companyWalletEnv); ok && s.CompanyWallet.Empty() {
		s.CompanyWallet = proto.WalletAddress(v)
	}
	if v, ok := lookup(ownerWalletEnv); ok && s.Owner.Empty() {
		s.Owner = proto.WalletAddress(v)
	}
}

func ApplySettings(settings *EngineSettings, f ...func(*EngineSettings)) {
	for _, fn := range f {
		fn(settings)
	}
}
