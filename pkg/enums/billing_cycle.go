package enums

import "fmt"

// BillingCycle defines the cadence a subscription renews on.
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleAnnual  BillingCycle = "annual"
)

var validBillingCycles = []BillingCycle{
	BillingCycleMonthly,
	BillingCycleAnnual,
}

// String implements fmt.Stringer.
func (b BillingCycle) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BillingCycle.
func (b BillingCycle) IsValid() bool {
	for _, candidate := range validBillingCycles {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBillingCycle converts raw input into a BillingCycle. The legacy
// "annually" spelling is accepted as an alias for annual.
func ParseBillingCycle(value string) (BillingCycle, error) {
	if value == "annually" {
		return BillingCycleAnnual, nil
	}
	for _, candidate := range validBillingCycles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billing cycle %q", value)
}
