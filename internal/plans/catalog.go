package plans

import (
	"github.com/shopspring/decimal"

	"github.com/shuddy05/compliancehub-backendd/pkg/enums"
)

// Plan is one catalog entry surfaced to clients. Pricing is in whole NGN;
// the initiator converts to kobo at the gateway boundary.
type Plan struct {
	ID            enums.SubscriptionTier `json:"id"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	Currency      string                 `json:"currency"`
	Price         *decimal.Decimal       `json:"price,omitempty"`
	PriceMonthly  *decimal.Decimal       `json:"price_monthly,omitempty"`
	PriceAnnually *decimal.Decimal       `json:"price_annually,omitempty"`
	Features      []string               `json:"features"`
	Limitations   []string               `json:"limitations,omitempty"`
	CustomPricing bool                   `json:"custom_pricing,omitempty"`
}

var (
	zero          = decimal.Zero
	proMonthly    = decimal.NewFromInt(15000)
	proAnnually   = decimal.NewFromInt(150000)
	enterpriseMon = decimal.NewFromInt(75000)
)

var catalog = []Plan{
	{
		ID:          enums.SubscriptionTierFree,
		Name:        "Starter",
		Description: "Perfect for solo entrepreneurs",
		Currency:    "NGN",
		Price:       &zero,
		Features: []string{
			"Up to 5 employees",
			"Basic PAYE calculation",
			"Payroll processing (1 month history)",
			"Compliance calendar view",
			"Email reminders",
			"Document storage (100MB)",
			"Learning resources",
		},
		Limitations: []string{
			"No automatic filing",
			"No multi-user access",
			"No API access",
		},
	},
	{
		ID:            enums.SubscriptionTierPro,
		Name:          "Growth",
		Description:   "For growing SMEs",
		Currency:      "NGN",
		PriceMonthly:  &proMonthly,
		PriceAnnually: &proAnnually,
		Features: []string{
			"Up to 50 employees",
			"Automated PAYE, WHT calculations",
			"Pension remittance automation",
			"NSITF & ITF compliance",
			"VAT filing assistance",
			"Unlimited payroll history",
			"Multi-user access (3 users)",
			"Advanced reminders",
			"Document storage (5GB)",
			"Audit trail & reports",
			"Priority support (12hr response)",
			"White-label payslips",
			"API access (1,000 calls/month)",
		},
	},
	{
		ID:           enums.SubscriptionTierEnterprise,
		Name:         "Scale",
		Description:  "For established companies and agencies",
		Currency:     "NGN",
		PriceMonthly: &enterpriseMon,
		Features: []string{
			"Unlimited employees",
			"Everything in Pro +",
			"Multi-company management",
			"Custom compliance workflows",
			"Dedicated account manager",
			"Advanced analytics",
			"Custom integrations",
			"Unlimited API access",
			"Priority phone support (2hr)",
			"99.9% uptime SLA",
		},
		CustomPricing: true,
	},
}

// Plans returns the full plan catalog.
func Plans() []Plan {
	out := make([]Plan, len(catalog))
	copy(out, catalog)
	return out
}

// AmountFor returns the charge amount before VAT for a plan/cycle pair.
// Unknown plans, the free tier, and cycles without a defined price (such as
// enterprise annual, which is custom-quoted) all return zero; callers treat
// zero as not payable.
func AmountFor(plan string, cycle enums.BillingCycle) decimal.Decimal {
	tier, err := enums.ParseSubscriptionTier(plan)
	if err != nil {
		return decimal.Zero
	}
	switch tier {
	case enums.SubscriptionTierPro:
		switch cycle {
		case enums.BillingCycleMonthly:
			return proMonthly
		case enums.BillingCycleAnnual:
			return proAnnually
		}
	case enums.SubscriptionTierEnterprise:
		if cycle == enums.BillingCycleMonthly {
			return enterpriseMon
		}
	}
	return decimal.Zero
}

// PricingFor returns the monthly/annual price pair used by read endpoints.
// The annual price is nil when the tier has no published annual rate.
func PricingFor(tier enums.SubscriptionTier) (monthly decimal.Decimal, annually *decimal.Decimal) {
	switch tier {
	case enums.SubscriptionTierPro:
		return proMonthly, &proAnnually
	case enums.SubscriptionTierEnterprise:
		return enterpriseMon, nil
	default:
		return decimal.Zero, &zero
	}
}
