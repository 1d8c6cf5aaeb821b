package matrix

import (
	"fmt"
	"time"

	"github.com/tonclub/hypersonic/pkg/proto"
)

var testNow = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

const testRoot = proto.WalletAddress("root")

func newTestView() MapView {
	return MapView{
		testRoot: {
			Wallet:       testRoot,
			PackageLevel: proto.MaxPackageLevel,
			Matrix: &proto.MatrixNode{
				SubscriptionType: proto.MonthlyWithin30Days,
				RegistrationDate: testNow,
				ExpirationDate:   testNow.AddDate(1, 0, 0),
				Active:           true,
			},
		},
	}
}

// attach places wallet at the given position and bumps descendant counters up to the root.
func attach(v MapView, wallet, parent proto.WalletAddress, pos proto.MatrixPosition, st proto.SubscriptionType) *proto.Member {
	p := v[parent]
	if !p.Matrix.Children[pos].Empty() {
		panic(fmt.Sprintf("slot %s of %s is taken", pos, parent))
	}
	m := &proto.Member{
		Wallet:   wallet,
		Username: string(wallet),
		Matrix: &proto.MatrixNode{
			SubscriptionType: st,
			RegistrationDate: testNow,
			ExpirationDate:   testNow.AddDate(1, 0, 0),
			Parent:           parent,
			Active:           true,
		},
	}
	v[wallet] = m
	p.Matrix.Children[pos] = wallet
	for a := parent; !a.Empty(); a = v[a].Matrix.Parent {
		v[a].Matrix.Descendants++
	}
	return m
}

// placeAuto runs Place from candidate and attaches the member where it says.
func placeAuto(v MapView, wallet, candidate proto.WalletAddress) (Placement, error) {
	pl, err := Place(v, candidate)
	if err != nil {
		return Placement{}, err
	}
	attach(v, wallet, pl.Parent, pl.Position, proto.MonthlyWithin30Days)
	return pl, nil
}
