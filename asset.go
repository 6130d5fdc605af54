package cryptofolio

import (
	"fmt"
	"regexp"
)

// symbolRegex checks for an upper-case ticker like BTC, USDT or 1INCH.
var symbolRegex = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// PrecisionClass groups assets by the number of decimals their quantities use.
type PrecisionClass string

const (
	// Coin is a high precision asset like BTC or ETH (8 decimals).
	Coin PrecisionClass = "coin"
	// Stable is a fiat-pegged stablecoin like USDT (6 decimals).
	Stable PrecisionClass = "stable"
)

// Decimals returns the number of decimal places of quantities in this class.
func (c PrecisionClass) Decimals() int32 {
	if c == Stable {
		return 6
	}
	return 8
}

// ParsePrecisionClass parses "coin" or "stable".
func ParsePrecisionClass(s string) (PrecisionClass, error) {
	switch PrecisionClass(s) {
	case Coin, Stable:
		return PrecisionClass(s), nil
	case "":
		return Coin, nil
	default:
		return "", fmt.Errorf("unknown precision class: %q", s)
	}
}

// Asset is the immutable reference data of a tradable crypto asset.
type Asset struct {
	Symbol string         `json:"symbol"`
	Name   string         `json:"name,omitempty"`
	Class  PrecisionClass `json:"class"`
}

// NewAsset creates an Asset.
func NewAsset(symbol, name string, class PrecisionClass) Asset {
	return Asset{Symbol: symbol, Name: name, Class: class}
}

// IsStable reports whether the asset is a stablecoin.
func (a Asset) IsStable() bool { return a.Class == Stable }

// Round rounds a quantity of this asset to its precision.
func (a Asset) Round(q Quantity) Quantity { return q.Round(a.Class.Decimals()) }

// DisplayName returns the name or the symbol when no name is set.
func (a Asset) DisplayName() string {
	if a.Name == "" {
		return a.Symbol
	}
	return a.Name
}

// Validate checks the asset reference data.
func (a Asset) Validate() error {
	if !symbolRegex.MatchString(a.Symbol) {
		return invalid("symbol", "%q is not an upper-case asset symbol", a.Symbol)
	}
	if IsFiat(a.Symbol) {
		return invalid("symbol", "%q is a fiat currency, not an asset", a.Symbol)
	}
	if _, err := ParsePrecisionClass(string(a.Class)); err != nil {
		return invalid("class", "%v", err)
	}
	return nil
}
