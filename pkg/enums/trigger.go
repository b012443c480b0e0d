package enums

import "fmt"

// Trigger names a store event type that activates zero or more automations.
type Trigger string

const (
	TriggerOrderPaid       Trigger = "order_paid"
	TriggerOrderFulfilled  Trigger = "order_fulfilled"
	TriggerCustomerCreated Trigger = "customer_created"
	TriggerCartAbandoned   Trigger = "cart_abandoned"
)

var validTriggers = []Trigger{
	TriggerOrderPaid,
	TriggerOrderFulfilled,
	TriggerCustomerCreated,
	TriggerCartAbandoned,
}

// IsValid reports whether the value matches the canonical trigger enum.
func (t Trigger) IsValid() bool {
	for _, candidate := range validTriggers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTrigger converts the raw string to Trigger.
func ParseTrigger(value string) (Trigger, error) {
	for _, candidate := range validTriggers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid trigger %q", value)
}
