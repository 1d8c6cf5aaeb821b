package errs

type AlreadyRegistered struct {
	message string
}

func NewAlreadyRegistered(message string) *AlreadyRegistered {
	return &AlreadyRegistered{message: message}
}

func (a AlreadyRegistered) Error() string {
	return a.message
}

func (a AlreadyRegistered) Extend(message string) error {
	return NewAlreadyRegistered(fmtExtend(a, message))
}

func (a AlreadyRegistered) Is(target error) bool {
	switch target.(type) {
	case AlreadyRegistered, *AlreadyRegistered:
		return true
	default:
		return false
	}
}

type NotRegistered struct {
	message string
}

func NewNotRegistered(message string) *NotRegistered {
	return &NotRegistered{message: message}
}

func (a NotRegistered) Error() string {
	return a.message
}

func (a NotRegistered) Extend(message string) error {
	return NewNotRegistered(fmtExtend(a, message))
}

func (a NotRegistered) Is(target error) bool {
	switch target.(type) {
	case NotRegistered, *NotRegistered:
		return true
	default:
		return false
	}
}

type InsufficientBalance struct {
	message string
}

func NewInsufficientBalance(message string) *InsufficientBalance {
	return &InsufficientBalance{message: message}
}

func (a InsufficientBalance) Error() string {
	return a.message
}

func (a InsufficientBalance) Extend(message string) error {
	return NewInsufficientBalance(fmtExtend(a, message))
}

func (a InsufficientBalance) Is(target error) bool {
	switch target.(type) {
	case InsufficientBalance, *InsufficientBalance:
		return true
	default:
		return false
	}
}

type SlotOccupied struct {
	message string
}

func NewSlotOccupied(message string) *SlotOccupied {
	return &SlotOccupied{message: message}
}

func (a SlotOccupied) Error() string {
	return a.message
}

func (a SlotOccupied) Extend(message string) error {
	return NewSlotOccupied(fmtExtend(a, message))
}

func (a SlotOccupied) Is(target error) bool {
	switch target.(type) {
	case SlotOccupied, *SlotOccupied:
		return true
	default:
		return false
	}
}

type PayoutSumMismatch struct {
	message string
}

func NewPayoutSumMismatch(message string) *PayoutSumMismatch {
	return &PayoutSumMismatch{message: message}
}

func (a PayoutSumMismatch) Error() string {
	return a.message
}

func (a PayoutSumMismatch) Extend(message string) error {
	return NewPayoutSumMismatch(fmtExtend(a, message))
}

func (a PayoutSumMismatch) Is(target error) bool {
	switch target.(type) {
	case PayoutSumMismatch, *PayoutSumMismatch:
		return true
	default:
		return false
	}
}

type Unauthorized struct {
	message string
}

func NewUnauthorized(message string) *Unauthorized {
	return &Unauthorized{message: message}
}

func (a Unauthorized) Error() string {
	return a.message
}

func (a Unauthorized) Extend(message string) error {
	return NewUnauthorized(fmtExtend(a, message))
}

func (a Unauthorized) Is(target error) bool {
	switch target.(type) {
	case Unauthorized, *Unauthorized:
		return true
	default:
		return false
	}
}

type AncestorNotFound struct {
	message string
}

func NewAncestorNotFound(message string) *AncestorNotFound {
	return &AncestorNotFound{message: message}
}

func (a AncestorNotFound) Error() string {
	return a.message
}

func (a AncestorNotFound) Extend(message string) error {
	return NewAncestorNotFound(fmtExtend(a, message))
}

func (a AncestorNotFound) Is(target error) bool {
	switch target.(type) {
	case AncestorNotFound, *AncestorNotFound:
		return true
	default:
		return false
	}
}

type AlreadySubscribed struct {
	message string
}

func NewAlreadySubscribed(message string) *AlreadySubscribed {
	return &AlreadySubscribed{message: message}
}

func (a AlreadySubscribed) Error() string {
	return a.message
}

func (a AlreadySubscribed) Extend(message string) error {
	return NewAlreadySubscribed(fmtExtend(a, message))
}

func (a AlreadySubscribed) Is(target error) bool {
	switch target.(type) {
	case AlreadySubscribed, *AlreadySubscribed:
		return true
	default:
		return false
	}
}

type NotSubscribed struct {
	message string
}

func NewNotSubscribed(message string) *NotSubscribed {
	return &NotSubscribed{message: message}
}

func (a NotSubscribed) Error() string {
	return a.message
}

func (a NotSubscribed) Extend(message string) error {
	return NewNotSubscribed(fmtExtend(a, message))
}

func (a NotSubscribed) Is(target error) bool {
	switch target.(type) {
	case NotSubscribed, *NotSubscribed:
		return true
	default:
		return false
	}
}

type PriceMismatch struct {
	message string
}

func NewPriceMismatch(message string) *PriceMismatch {
	return &PriceMismatch{message: message}
}

func (a PriceMismatch) Error() string {
	return a.message
}

func (a PriceMismatch) Extend(message string) error {
	return NewPriceMismatch(fmtExtend(a, message))
}

func (a PriceMismatch) Is(target error) bool {
	switch target.(type) {
	case PriceMismatch, *PriceMismatch:
		return true
	default:
		return false
	}
}

type InvalidLevel struct {
	message string
}

func NewInvalidLevel(message string) *InvalidLevel {
	return &InvalidLevel{message: message}
}

func (a InvalidLevel) Error() string {
	return a.message
}

func (a InvalidLevel) Extend(message string) error {
	return NewInvalidLevel(fmtExtend(a, message))
}

func (a InvalidLevel) Is(target error) bool {
	switch target.(type) {
	case InvalidLevel, *InvalidLevel:
		return true
	default:
		return false
	}
}

type Overflow struct {
	message string
}

func NewOverflow(message string) *Overflow {
	return &Overflow{message: message}
}

func (a Overflow) Error() string {
	return a.message
}

func (a Overflow) Extend(message string) error {
	return NewOverflow(fmtExtend(a, message))
}

func (a Overflow) Is(target error) bool {
	switch target.(type) {
	case Overflow, *Overflow:
		return true
	default:
		return false
	}
}

type InvalidRequest struct {
	message string
}

func NewInvalidRequest(message string) *InvalidRequest {
	return &InvalidRequest{message: message}
}

func (a InvalidRequest) Error() string {
	return a.message
}

func (a InvalidRequest) Extend(message string) error {
	return NewInvalidRequest(fmtExtend(a, message))
}

func (a InvalidRequest) Is(target error) bool {
	switch target.(type) {
	case InvalidRequest, *InvalidRequest:
		return true
	default:
		return false
	}
}
