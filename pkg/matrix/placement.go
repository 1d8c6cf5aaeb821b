package matrix

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/tonclub/hypersonic/pkg/errs"
	"github.com/tonclub/hypersonic/pkg/proto"
)

type Placement struct {
	Parent   proto.WalletAddress
	Position proto.MatrixPosition
}

func notRegistered(wallet proto.WalletAddress) error {
	return errs.NewNotRegistered(fmt.Sprintf("member %q is not registered", wallet))
}

func subscribedNode(v View, wallet proto.WalletAddress) (*proto.MatrixNode, error) {
	m, err := v.Member(wallet)
	if err != nil {
		return nil, err
	}
	if !m.Subscribed() {
		return nil, errs.NewNotSubscribed(fmt.Sprintf("member %q has no matrix node", wallet))
	}
	return m.Matrix, nil
}

// Place finds a slot under candidate. The first free slot of a node is taken in left, middle,
// right order. A full node hands the search over to the child with the fewest descendants.
func Place(v View, candidate proto.WalletAddress) (Placement, error) {
	current := candidate
	visited := make(map[proto.WalletAddress]struct{})
	for {
		if _, ok := visited[current]; ok {
			return Placement{}, errors.Errorf("matrix cycle detected at %q", current)
		}
		visited[current] = struct{}{}
		node, err := subscribedNode(v, current)
		if err != nil {
			return Placement{}, errors.Wrapf(err, "failed to load matrix node of %q", current)
		}
		if pos, ok := node.FreeSlot(); ok {
			return Placement{Parent: current, Position: pos}, nil
		}
		var counts [proto.MatrixWidth]uint64
		for i, c := range node.Children {
			child, err := subscribedNode(v, c)
			if err != nil {
				return Placement{}, errors.Wrapf(err, "failed to load child %q of %q", c, current)
			}
			counts[i] = child.Descendants
		}
		current = node.Children[lightestChild(counts)]
	}
}

// lightestChild picks the child with the fewest descendants preferring left, then middle.
func lightestChild(c [proto.MatrixWidth]uint64) proto.MatrixPosition {
	l, m, r := c[proto.Left], c[proto.Middle], c[proto.Right]
	switch {
	case l <= m && l <= r:
		return proto.Left
	case m < l && m <= r:
		return proto.Middle
	default:
		return proto.Right
	}
}

// CandidateParent returns the nearest subscribed ancestor of member, starting with the sponsor.
// The root is used when nobody in the upline is subscribed.
func CandidateParent(v View, member *proto.Member, root proto.WalletAddress) (proto.WalletAddress, error) {
	for _, a := range member.Upline {
		m, err := v.Member(a)
		if err != nil {
			if errors.Is(err, errs.NotRegistered{}) {
				return "", errs.NewAncestorNotFound(fmt.Sprintf("upline member %q is missing", a))
			}
			return "", err
		}
		if m.Subscribed() {
			return a, nil
		}
	}
	return root, nil
}
