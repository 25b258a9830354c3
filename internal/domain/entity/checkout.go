package entity

import "errors"

type CheckoutStatus string

const (
	CheckoutIdle       CheckoutStatus = "idle"
	CheckoutProcessing CheckoutStatus = "processing"
	CheckoutSuccess    CheckoutStatus = "success"
	CheckoutError      CheckoutStatus = "error"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutSuccess || s == CheckoutError
}

func (s CheckoutStatus) String() string {
	return string(s)
}

var ErrCheckoutInProgress = errors.New("checkout is already in progress")

// CheckoutState tracks one user's checkout attempt:
// idle -> processing -> success | error, with error -> processing on retry
// and an explicit reset back to idle.
type CheckoutState struct {
	Status  CheckoutStatus `json:"status"`
	OrderID string         `json:"order_id,omitempty"`
	Err     string         `json:"error,omitempty"`
}

func NewCheckoutState() CheckoutState {
	return CheckoutState{Status: CheckoutIdle}
}

// Begin moves into processing and clears any prior outcome. A checkout
// already in flight is rejected so a double submit cannot run twice.
func (s *CheckoutState) Begin() error {
	if s.Status == CheckoutProcessing {
		return ErrCheckoutInProgress
	}
	s.Status = CheckoutProcessing
	s.OrderID = ""
	s.Err = ""
	return nil
}

func (s *CheckoutState) Succeed(orderID string) {
	s.Status = CheckoutSuccess
	s.OrderID = orderID
	s.Err = ""
}

func (s *CheckoutState) Fail(message string) {
	s.Status = CheckoutError
	s.OrderID = ""
	s.Err = message
}

func (s *CheckoutState) Reset() {
	s.Status = CheckoutIdle
	s.OrderID = ""
	s.Err = ""
}
