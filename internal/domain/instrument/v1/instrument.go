package instrumentv1

import (
	"errors"
	"fmt"

	marketv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/market/v1"
)

var (
	// ErrInvalidQuantity marks a quantity that is not a positive multiple of
	// the lot size.
	ErrInvalidQuantity = errors.New("quantity is not a positive multiple of the lot size")
	// ErrInvalidPrice marks a price that is not a multiple of the tick size.
	ErrInvalidPrice = errors.New("price is not a multiple of the tick size")
)

// Kind represents the payoff shape of an instrument.
type Kind uint8

const (
	// KindScalar settles at the declared value directly.
	KindScalar Kind = iota
	// KindCall settles at max(0, settlement - strike).
	KindCall
	// KindPut settles at max(0, strike - settlement).
	KindPut
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindCall:
		return "call"
	case KindPut:
		return "put"
	default:
		return "unknown"
	}
}

// ParseKind converts a string form (as used in instrument files) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "scalar":
		return KindScalar, nil
	case "call":
		return KindCall, nil
	case "put":
		return KindPut, nil
	default:
		return KindScalar, fmt.Errorf("unknown instrument kind %q", s)
	}
}

// IsOption reports whether the kind derives its payoff from a reference scalar.
func (k Kind) IsOption() bool {
	return k == KindCall || k == KindPut
}

// Spec describes a tradable instrument.
type Spec struct {
	ID     marketv1.InstrumentID `json:"id" yaml:"id"`
	Symbol string                `json:"symbol" yaml:"symbol"`
	Kind   Kind                  `json:"kind" yaml:"-"`

	// ReferenceID points at the underlying scalar for options, zero otherwise.
	ReferenceID marketv1.InstrumentID `json:"referenceID" yaml:"reference_id"`
	// Strike applies to options only, in price units.
	Strike marketv1.Price `json:"strike" yaml:"strike"`

	TickSize  marketv1.Price    `json:"tickSize" yaml:"tick_size"`
	LotSize   marketv1.Quantity `json:"lotSize" yaml:"lot_size"`
	TickValue float64           `json:"tickValue" yaml:"tick_value"`

	IsHalted bool `json:"isHalted" yaml:"-"`
}

// Validate checks the spec's internal consistency. Reference resolution is
// the registry's concern; only locally checkable fields are covered here.
func (s *Spec) Validate() error {
	if s.ID == 0 {
		return fmt.Errorf("instrument id must be positive")
	}
	if s.TickSize <= 0 {
		return fmt.Errorf("instrument %d: tick size must be positive", s.ID)
	}
	if s.LotSize < 1 {
		return fmt.Errorf("instrument %d: lot size must be at least 1", s.ID)
	}
	if s.Kind.IsOption() && s.ReferenceID == 0 {
		return fmt.Errorf("instrument %d: option requires a reference instrument", s.ID)
	}
	if !s.Kind.IsOption() && s.ReferenceID != 0 {
		return fmt.Errorf("instrument %d: scalar must not carry a reference", s.ID)
	}
	return nil
}

// ValidateOrder checks an order's price and quantity against tick and lot
// size. Quantity is checked first; the engine maps each sentinel to its
// client-facing message.
func (s *Spec) ValidateOrder(price marketv1.Price, qty marketv1.Quantity) error {
	if qty <= 0 || qty%s.LotSize != 0 {
		return fmt.Errorf("%w: got %d with lot size %d", ErrInvalidQuantity, qty, s.LotSize)
	}
	if price%s.TickSize != 0 {
		return fmt.Errorf("%w: got %d with tick size %d", ErrInvalidPrice, price, s.TickSize)
	}
	return nil
}

// PayoffPerUnit returns the settlement payoff per unit of position, in real
// dollars, for a declared settlement value.
func (s *Spec) PayoffPerUnit(settlement marketv1.Price) float64 {
	switch s.Kind {
	case KindCall:
		intrinsic := settlement - s.Strike
		if intrinsic < 0 {
			intrinsic = 0
		}
		return intrinsic.Dollars() * s.TickValue
	case KindPut:
		intrinsic := s.Strike - settlement
		if intrinsic < 0 {
			intrinsic = 0
		}
		return intrinsic.Dollars() * s.TickValue
	default:
		return settlement.Dollars() * s.TickValue
	}
}
