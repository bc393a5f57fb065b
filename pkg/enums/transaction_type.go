package enums

import "fmt"

// TransactionType distinguishes what a payment transaction paid for.
type TransactionType string

const (
	TransactionTypeSubscription TransactionType = "subscription"
	TransactionTypeOneTime      TransactionType = "one_time"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeSubscription,
	TransactionTypeOneTime,
}

// String implements fmt.Stringer.
func (t TransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is known.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into a TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
