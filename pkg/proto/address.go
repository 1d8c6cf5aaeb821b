package proto

import (
	"strings"

	"github.com/pkg/errors"
)

const maxWalletAddressLen = 128

// WalletAddress identifies a member. The engine treats it as an opaque string.
type WalletAddress string

func NewWalletAddress(s string) (WalletAddress, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("empty wallet address")
	}
	if len(s) > maxWalletAddressLen {
		return "", errors.Errorf("wallet address is longer than %d bytes", maxWalletAddressLen)
	}
	return WalletAddress(s), nil
}

func (a WalletAddress) Empty() bool {
	return a == ""
}

func (a WalletAddress) String() string {
	return string(a)
}

func (a WalletAddress) Bytes() []byte {
	return []byte(a)
}
