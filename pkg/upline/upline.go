// Package upline computes the sponsor chain of a newly registered member.
package upline

import (
	"github.com/tonclub/hypersonic/pkg/proto"
)

// Resolve returns the upline of a member sponsored by sponsor: the sponsor followed
// by the sponsor's own upline, truncated to proto.UplineDepth entries.
func Resolve(sponsor proto.WalletAddress, sponsorUpline []proto.WalletAddress) []proto.WalletAddress {
	n := len(sponsorUpline) + 1
	if n > proto.UplineDepth {
		n = proto.UplineDepth
	}
	out := make([]proto.WalletAddress, 0, n)
	out = append(out, sponsor)
	for _, a := range sponsorUpline {
		if len(out) == n {
			break
		}
		out = append(out, a)
	}
	return out
}

// Equal reports whether two uplines list the same ancestors in the same order.
func Equal(a, b []proto.WalletAddress) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Truncate drops the entries beyond proto.UplineDepth.
func Truncate(u []proto.WalletAddress) []proto.WalletAddress {
	if len(u) > proto.UplineDepth {
		return u[:proto.UplineDepth]
	}
	return u
}
