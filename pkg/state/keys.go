package state

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/tonclub/hypersonic/pkg/proto"
)

const (
	memberKeyPrefix byte = iota + 1
	companyBalanceKeyPrefix
	ownerKeyPrefix
	startDateKeyPrefix
	usersCounterKeyPrefix
	subscribedCounterKeyPrefix
	lastSeqKeyPrefix
	txKeyPrefix
)

type memberKey struct {
	wallet proto.WalletAddress
}

func (k memberKey) bytes() []byte {
	buf := make([]byte, 1+len(k.wallet))
	buf[0] = memberKeyPrefix
	copy(buf[1:], k.wallet)
	return buf
}

func walletFromMemberKey(key []byte) proto.WalletAddress {
	return proto.WalletAddress(key[1:])
}

type singletonKey byte

func (k singletonKey) bytes() []byte {
	return []byte{byte(k)}
}

var (
	companyBalanceKey    = singletonKey(companyBalanceKeyPrefix)
	ownerKey             = singletonKey(ownerKeyPrefix)
	startDateKey         = singletonKey(startDateKeyPrefix)
	usersCounterKey      = singletonKey(usersCounterKeyPrefix)
	subscribedCounterKey = singletonKey(subscribedCounterKeyPrefix)
	lastSeqKey           = singletonKey(lastSeqKeyPrefix)
)

type txKey struct {
	seq uint64
}

func (k txKey) bytes() []byte {
	buf := make([]byte, 9)
	buf[0] = txKeyPrefix
	binary.BigEndian.PutUint64(buf[1:], k.seq)
	return buf
}

func uint64Bytes(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func bytesUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, errors.Errorf("invalid uint64 record size %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}
