package limits

import (
	"encoding/json"

	"github.com/shuddy05/compliancehub-backendd/pkg/enums"
)

// Limit is either a bounded count or unlimited. The JSON form is the number
// itself for bounded limits and the string "unlimited" otherwise, so clients
// never see sentinel numbers.
type Limit struct {
	bounded bool
	value   int64
}

// Bounded returns a limit capped at n.
func Bounded(n int64) Limit {
	return Limit{bounded: true, value: n}
}

// Unbounded returns an unlimited limit.
func Unbounded() Limit {
	return Limit{}
}

// IsBounded reports whether the limit has a finite cap.
func (l Limit) IsBounded() bool {
	return l.bounded
}

// Value returns the cap and whether it is finite.
func (l Limit) Value() (int64, bool) {
	return l.value, l.bounded
}

// Percentage returns current usage as a percentage of the cap, zero when
// unlimited.
func (l Limit) Percentage(current int64) float64 {
	if !l.bounded || l.value <= 0 {
		return 0
	}
	return float64(current) / float64(l.value) * 100
}

// Exceeded reports whether current usage is at or above the cap.
func (l Limit) Exceeded(current int64) bool {
	return l.bounded && current >= l.value
}

func (l Limit) MarshalJSON() ([]byte, error) {
	if !l.bounded {
		return json.Marshal("unlimited")
	}
	return json.Marshal(l.value)
}

// TierLimits groups the per-tier resource caps.
type TierLimits struct {
	Employees Limit
	StorageMB Limit
	APICalls  Limit
}

// ForTier returns the resource caps for a subscription tier. Unknown tiers
// get the free-tier caps.
func ForTier(tier enums.SubscriptionTier) TierLimits {
	switch tier {
	case enums.SubscriptionTierPro:
		return TierLimits{
			Employees: Bounded(50),
			StorageMB: Bounded(5000),
			APICalls:  Bounded(1000),
		}
	case enums.SubscriptionTierEnterprise:
		return TierLimits{
			Employees: Unbounded(),
			StorageMB: Unbounded(),
			APICalls:  Unbounded(),
		}
	default:
		return TierLimits{
			Employees: Bounded(5),
			StorageMB: Bounded(100),
			APICalls:  Unbounded(),
		}
	}
}
