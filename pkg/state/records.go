package state

import (
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/tonclub/hypersonic/pkg/proto"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{Time: cbor.TimeRFC3339Nano, Sort: cbor.SortCanonical}.EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
}

func marshalRecord(v any) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal %T", v)
	}
	return data, nil
}

func unmarshalRecord(data []byte, out any) error {
	if err := decMode.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "failed to unmarshal %T", out)
	}
	return nil
}

type TxKind uint8

const (
	TxBootstrap TxKind = iota + 1
	TxRegister
	TxPreRegisterMember
	TxDeposit
	TxWithdraw
	TxUpgradePlan
	TxSubscribeToMatrix
	TxMonthlyDistribution
	TxAdminWithdrawal
	TxChangeOwner
)

var txKindNames = map[TxKind]string{
	TxBootstrap:           "Bootstrap",
	TxRegister:            "Register",
	TxPreRegisterMember:   "PreRegisterMember",
	TxDeposit:             "Deposit",
	TxWithdraw:            "Withdraw",
	TxUpgradePlan:         "UpgradePlan",
	TxSubscribeToMatrix:   "SubscribeToMatrix",
	TxMonthlyDistribution: "MonthlyDistribution",
	TxAdminWithdrawal:     "AdminWithdrawal",
	TxChangeOwner:         "ChangeOwner",
}

func (k TxKind) String() string {
	if n, ok := txKindNames[k]; ok {
		return n
	}
	return "Unknown"
}

func (k TxKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// TxRecord is an entry of the append-only transaction log.
type TxRecord struct {
	Seq       uint64              `json:"seq" cbor:"1,keyasint"`
	ID        string              `json:"id" cbor:"2,keyasint,omitempty"`
	Kind      TxKind              `json:"kind" cbor:"3,keyasint"`
	Sender    proto.WalletAddress `json:"sender,omitempty" cbor:"4,keyasint,omitempty"`
	Wallet    proto.WalletAddress `json:"wallet,omitempty" cbor:"5,keyasint,omitempty"`
	Amount    proto.Amount        `json:"amount" cbor:"6,keyasint"`
	Timestamp time.Time           `json:"timestamp" cbor:"7,keyasint"`
}

// digestID derives the record id from its content without the id itself.
func (r TxRecord) digestID() (string, error) {
	r.ID = ""
	data, err := marshalRecord(r)
	if err != nil {
		return "", err
	}
	d := blake2b.Sum256(data)
	return base58.Encode(d[:]), nil
}
