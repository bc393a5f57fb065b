package enums

import "fmt"

// PaymentMethod records how the gateway transaction was initialized.
// Inline means the frontend drove the Paystack checkout directly; server
// means this backend initialized the transaction with its secret key.
type PaymentMethod string

const (
	PaymentMethodPaystackInline PaymentMethod = "paystack_inline"
	PaymentMethodPaystackServer PaymentMethod = "paystack_server"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodPaystackInline,
	PaymentMethodPaystackServer,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
