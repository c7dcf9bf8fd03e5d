package domain

// CheckoutStatus is the state of a terminal's checkout orchestrator.
type CheckoutStatus string

const (
	CheckoutStatusIdle       CheckoutStatus = "IDLE"
	CheckoutStatusSubmitting CheckoutStatus = "SUBMITTING"
	CheckoutStatusSucceeded  CheckoutStatus = "SUCCEEDED"
	CheckoutStatusFailed     CheckoutStatus = "FAILED"
)

var checkoutTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusIdle:       {CheckoutStatusSubmitting},
	CheckoutStatusSubmitting: {CheckoutStatusSucceeded, CheckoutStatusFailed},
	CheckoutStatusSucceeded:  {CheckoutStatusSubmitting},
	CheckoutStatusFailed:     {CheckoutStatusSubmitting},
}

func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, s := range checkoutTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the last attempt has finished.
func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusSucceeded || s == CheckoutStatusFailed
}

func (s CheckoutStatus) String() string {
	return string(s)
}
