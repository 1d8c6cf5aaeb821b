package proto

import (
	"time"
)

type Member struct {
	Wallet       WalletAddress   `json:"wallet" cbor:"1,keyasint"`
	Username     string          `json:"username" cbor:"2,keyasint"`
	PackageLevel PackageLevel    `json:"packageLevel" cbor:"3,keyasint"`
	Balance      Amount          `json:"balance" cbor:"4,keyasint"`
	Upline       []WalletAddress `json:"upline" cbor:"5,keyasint"`
	Invited      []WalletAddress `json:"invited" cbor:"6,keyasint"`
	Matrix       *MatrixNode     `json:"matrix,omitempty" cbor:"7,keyasint,omitempty"`
}

// Subscribed reports whether the member has a place in the matrix.
func (m *Member) Subscribed() bool {
	return m.Matrix != nil
}

// Sponsor returns the nearest ancestor or an empty address.
func (m *Member) Sponsor() WalletAddress {
	if len(m.Upline) == 0 {
		return ""
	}
	return m.Upline[0]
}

func (m *Member) Clone() *Member {
	c := *m
	c.Upline = append([]WalletAddress(nil), m.Upline...)
	c.Invited = append([]WalletAddress(nil), m.Invited...)
	if m.Matrix != nil {
		n := *m.Matrix
		c.Matrix = &n
	}
	return &c
}

type MatrixNode struct {
	SubscriptionType SubscriptionType           `json:"subscriptionType" cbor:"1,keyasint"`
	RegistrationDate time.Time                  `json:"registrationDate" cbor:"2,keyasint"`
	ExpirationDate   time.Time                  `json:"expirationDate" cbor:"3,keyasint"`
	Parent           WalletAddress              `json:"parent,omitempty" cbor:"4,keyasint,omitempty"`
	Children         [MatrixWidth]WalletAddress `json:"children" cbor:"5,keyasint"`
	Descendants      uint64                     `json:"descendants" cbor:"6,keyasint"`
	Active           bool                       `json:"active" cbor:"7,keyasint"`
	GracePeriod      bool                       `json:"gracePeriod" cbor:"8,keyasint"`
}

func (n *MatrixNode) Child(p MatrixPosition) WalletAddress {
	return n.Children[p]
}

// FreeSlot returns the first empty child slot in left, middle, right order.
func (n *MatrixNode) FreeSlot() (MatrixPosition, bool) {
	for i, c := range n.Children {
		if c.Empty() {
			return MatrixPosition(i), true
		}
	}
	return 0, false
}

// Contributing reports whether the node takes part in revenue sharing at the given moment.
func (n *MatrixNode) Contributing(now time.Time) bool {
	return n.Active && n.ExpirationDate.After(now)
}
