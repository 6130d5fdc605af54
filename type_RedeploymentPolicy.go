package cryptofolio

import "fmt"

// RedeploymentPolicy defines how spending one held asset to buy another is
// accounted for on the asset that was spent.
type RedeploymentPolicy int

const (
	// Transfer treats the payment as capital moving from one asset to the
	// other: the spent asset realizes nothing and the purchased asset gets no
	// cost from it.
	Transfer RedeploymentPolicy = iota
	// Disposal treats the payment as a sale of the spent asset at the value of
	// the purchase: it realizes P&L, and the purchased asset's average cost
	// includes that value.
	Disposal
)

func (p RedeploymentPolicy) String() string {
	switch p {
	case Transfer:
		return "transfer"
	case Disposal:
		return "disposal"
	default:
		return "unknown"
	}
}

// ParseRedeploymentPolicy parses a string into a RedeploymentPolicy. The empty
// string is the default Transfer policy.
func ParseRedeploymentPolicy(s string) (RedeploymentPolicy, error) {
	switch s {
	case "transfer", "":
		return Transfer, nil
	case "disposal":
		return Disposal, nil
	default:
		return 0, fmt.Errorf("unknown redeployment policy: %q", s)
	}
}

func (p RedeploymentPolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *RedeploymentPolicy) UnmarshalText(text []byte) error {
	v, err := ParseRedeploymentPolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
