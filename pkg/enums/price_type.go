package enums

import "fmt"

// PriceType is the coarse customer-class selector on a pricing rule.
type PriceType string

const (
	PriceTypeRegular      PriceType = "regular"
	PriceTypeMember       PriceType = "member"
	PriceTypeTierBronze   PriceType = "tier_bronze"
	PriceTypeTierSilver   PriceType = "tier_silver"
	PriceTypeTierGold     PriceType = "tier_gold"
	PriceTypeTierPlatinum PriceType = "tier_platinum"
)

var validPriceTypes = []PriceType{
	PriceTypeRegular,
	PriceTypeMember,
	PriceTypeTierBronze,
	PriceTypeTierSilver,
	PriceTypeTierGold,
	PriceTypeTierPlatinum,
}

// String implements fmt.Stringer.
func (p PriceType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PriceType.
func (p PriceType) IsValid() bool {
	for _, candidate := range validPriceTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsNarrow reports whether the type targets a narrower class than regular.
func (p PriceType) IsNarrow() bool {
	return p.IsValid() && p != PriceTypeRegular
}

// IsLoyaltyTier reports whether the type targets a specific loyalty tier class.
func (p PriceType) IsLoyaltyTier() bool {
	switch p {
	case PriceTypeTierBronze, PriceTypeTierSilver, PriceTypeTierGold, PriceTypeTierPlatinum:
		return true
	}
	return false
}

// AppliesTo reports whether a rule carrying this type is compatible with the
// given customer class. Regular rules apply to every class; member rules apply
// to any non-regular class; tier rules apply to exactly their class.
func (p PriceType) AppliesTo(class PriceType) bool {
	switch {
	case p == PriceTypeRegular:
		return true
	case p == PriceTypeMember:
		return class.IsNarrow()
	default:
		return p == class
	}
}

// ParsePriceType converts raw input into a PriceType.
func ParsePriceType(value string) (PriceType, error) {
	for _, candidate := range validPriceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price type %q", value)
}
