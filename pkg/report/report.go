// Package report renders monthly distribution runs and referral consistency checks.
package report

import (
	"encoding/csv"
	"strconv"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/valyala/bytebufferpool"

	"github.com/tonclub/hypersonic/pkg/planner"
	"github.com/tonclub/hypersonic/pkg/proto"
)

var distributionHeader = []string{
	"username",
	"walletAddress",
	"packageLevel",
	"memberRevenue",
	"companyRevenue",
	"subscriptionFee",
	"outcome",
	"error",
}

// WriteDistributionCSV writes one row per entry to path, replacing the file.
func WriteDistributionCSV(fs afero.Fs, path string, entries []planner.MonthlyEntry) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	w := csv.NewWriter(buf)
	if err := w.Write(distributionHeader); err != nil {
		return errors.Wrap(err, "failed to write report header")
	}
	for _, e := range entries {
		d := e.Distribution
		row := []string{
			d.Username,
			d.Wallet.String(),
			strconv.Itoa(int(e.PackageLevel)),
			d.MemberRevenue.String(),
			d.CompanyRevenue.String(),
			d.SubscriptionFee.String(),
			e.Result.Outcome.String(),
			e.Result.Error,
		}
		if err := w.Write(row); err != nil {
			return errors.Wrapf(err, "failed to write report row of %q", d.Wallet)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "failed to flush report")
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "failed to write report to %q", path)
	}
	return nil
}

// MemberSource iterates over all registered members, state.Snapshot implements it.
type MemberSource interface {
	Members(fn func(m *proto.Member) bool) error
}

// Duplicate is a wallet found in the invited lists of several members.
type Duplicate struct {
	Wallet   proto.WalletAddress   `json:"wallet"`
	Inviters []proto.WalletAddress `json:"inviters"`
}

// DuplicateInvites reports wallets that appear more than once across all invited lists,
// in the order they were first seen.
func DuplicateInvites(src MemberSource) ([]Duplicate, error) {
	seen := orderedmap.NewOrderedMap[proto.WalletAddress, []proto.WalletAddress]()
	err := src.Members(func(m *proto.Member) bool {
		for _, w := range m.Invited {
			inviters, _ := seen.Get(w)
			seen.Set(w, append(inviters, m.Wallet))
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan invited lists")
	}
	var out []Duplicate
	for el := seen.Front(); el != nil; el = el.Next() {
		if len(el.Value) > 1 {
			out = append(out, Duplicate{Wallet: el.Key, Inviters: el.Value})
		}
	}
	return out, nil
}
