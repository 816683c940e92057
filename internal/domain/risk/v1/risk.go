package riskv1

import (
	marketv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/market/v1"
)

// Limits holds a user's risk limits.
//
// MaxNotional and MaxOrdersPerSec are accepted and stored but not enforced;
// only the position cap gates submissions.
type Limits struct {
	MaxPosition     marketv1.Quantity `json:"maxPosition"`
	MaxNotional     float64           `json:"maxNotional"`
	MaxOrdersPerSec uint32            `json:"maxOrdersPerSec"`
}

// DefaultLimits returns a default set of limits. The engine does not apply
// it on its own: a user with no stored limits is not gated at all.
func DefaultLimits() Limits {
	return Limits{
		MaxPosition:     10000,
		MaxNotional:     1000000.0,
		MaxOrdersPerSec: 50,
	}
}

// Allows reports whether a submission of the given side and quantity keeps
// the resulting absolute position within the cap.
func (l Limits) Allows(current marketv1.Quantity, side marketv1.Side, qty marketv1.Quantity) bool {
	next := current + side.Sign()*qty
	if next < 0 {
		next = -next
	}
	return next <= l.MaxPosition
}
