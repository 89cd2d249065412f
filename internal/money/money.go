// Package money normalizes user-entered currency strings and derives the
// cost tier that governs approval limits.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Tier is a cost band. Approval roles are limited by tier boundaries.
type Tier int

const (
	Tier1 Tier = iota + 1 // <= $500
	Tier2                 // <= $2000
	Tier3                 // > $2000
)

func (t Tier) String() string {
	switch t {
	case Tier1:
		return "tier1"
	case Tier2:
		return "tier2"
	case Tier3:
		return "tier3"
	default:
		return "unknown"
	}
}

var (
	// StandardLimit is the per-request ceiling for Leadership and Mentors.
	StandardLimit = decimal.NewFromInt(500)
	// ApprovalCeiling is the hard cap above which no role may approve.
	ApprovalCeiling = decimal.NewFromInt(2000)
)

// Parse normalizes a user-entered amount. Currency symbols, commas and any
// other formatting artifacts are stripped; empty or unparseable input
// yields zero. Parse never fails.
func Parse(raw string) decimal.Decimal {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Format renders an amount as a $-prefixed string with two decimals.
func Format(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Total computes unitPrice * quantity + shipping from raw field values.
func Total(unitPrice, quantity, shipping string) decimal.Decimal {
	return Parse(unitPrice).Mul(Parse(quantity)).Add(Parse(shipping))
}

// TierOf maps a total cost onto its tier. Boundary values belong to the
// lower tier.
func TierOf(total decimal.Decimal) Tier {
	switch {
	case total.LessThanOrEqual(StandardLimit):
		return Tier1
	case total.LessThanOrEqual(ApprovalCeiling):
		return Tier2
	default:
		return Tier3
	}
}
