package matrix

import (
	"github.com/pkg/errors"

	"github.com/tonclub/hypersonic/pkg/proto"
)

// Subtree returns the matrix descendants of root down to maxDepth levels in breadth-first order.
// The root itself is not included. Nodes are kept in an arena keyed by address so that a
// malformed tree can't make the walk loop.
func Subtree(v View, root proto.WalletAddress, maxDepth int) ([]*proto.Member, error) {
	type entry struct {
		wallet proto.WalletAddress
		depth  int
	}
	arena := map[proto.WalletAddress]struct{}{root: {}}
	queue := []entry{{wallet: root}}
	var out []*proto.Member
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		node, err := subscribedNode(v, e.wallet)
		if err != nil {
			return nil, errors.Wrapf(err, "subtree of %q", root)
		}
		if e.depth == maxDepth {
			continue
		}
		for _, c := range node.Children {
			if c.Empty() {
				continue
			}
			if _, ok := arena[c]; ok {
				continue
			}
			arena[c] = struct{}{}
			m, err := v.Member(c)
			if err != nil {
				return nil, errors.Wrapf(err, "subtree of %q", root)
			}
			out = append(out, m)
			queue = append(queue, entry{wallet: c, depth: e.depth + 1})
		}
	}
	return out, nil
}
