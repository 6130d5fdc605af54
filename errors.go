package cryptofolio

import "fmt"

// ValidationError reports a malformed transaction or asset: non-positive
// quantity, negative price or fee, unknown asset, bad payment source...
type ValidationError struct {
	Field  string // offending field, e.g. "quantity"
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid transaction: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// DataIntegrityError reports a ledger whose state is inconsistent, typically a
// sell or a redeployment exceeding the quantity held at that time.
type DataIntegrityError struct {
	Asset       string
	Transaction TransactionID // may be empty
	Reason      string
}

func (e *DataIntegrityError) Error() string {
	if e.Transaction == "" {
		return fmt.Sprintf("ledger integrity: %s: %s", e.Asset, e.Reason)
	}
	return fmt.Sprintf("ledger integrity: %s (tx %s): %s", e.Asset, e.Transaction, e.Reason)
}

// QuoteKind tells which kind of quote is missing.
type QuoteKind string

const (
	PriceQuote QuoteKind = "price"
	FXQuote    QuoteKind = "fx"
)

// MissingQuoteError reports a price or an exchange rate that is required but
// absent from the supplied tables.
type MissingQuoteError struct {
	Kind   QuoteKind
	Symbol string // for a price quote
	From   string // for an fx quote
	To     string
}

func (e *MissingQuoteError) Error() string {
	if e.Kind == FXQuote {
		return fmt.Sprintf("missing exchange rate %s->%s", e.From, e.To)
	}
	return fmt.Sprintf("missing price for %s", e.Symbol)
}
