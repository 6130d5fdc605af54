package cryptofolio

// resolve checks a transaction against the assets declared in the ledger and
// normalizes its payment source:
//   - a fiat currency code as payment source means a fiat-funded buy;
//   - a stablecoin source without a payment quantity is spent 1:1 against the
//     purchase amount, and the quantity is marked as derived;
//   - any other asset source must state the quantity spent.
//
// The caller holds the ledger lock.
func (l *Ledger) resolve(tx Transaction) (Transaction, error) {
	asset, ok := l.assets[tx.Asset]
	if !ok {
		return tx, invalid("asset", "%q is not declared in the ledger", tx.Asset)
	}
	if !asset.Round(tx.Quantity).Equal(tx.Quantity) {
		return tx, invalid("quantity", "%s has more than %d decimals for %s", tx.Quantity, asset.Class.Decimals(), asset.Symbol)
	}
	if tx.PaymentSource == "" {
		return tx, nil
	}

	src, ok := l.assets[tx.PaymentSource]
	if !ok {
		if !IsFiat(tx.PaymentSource) {
			return tx, invalid("paymentSource", "%q is neither a declared asset nor a fiat currency", tx.PaymentSource)
		}
		if !tx.PaymentQuantity.IsZero() {
			return tx, invalid("paymentQuantity", "must not be set when paying with fiat %s", tx.PaymentSource)
		}
		tx.PaymentSource = ""
		tx.paymentDerived = false
		return tx, nil
	}

	if tx.PaymentQuantity.IsZero() {
		if !src.IsStable() {
			return tx, invalid("paymentQuantity", "required when paying with %s", src.Symbol)
		}
		tx.PaymentQuantity = src.Round(Q(tx.Amount().Decimal()))
		tx.paymentDerived = true
	}
	if !src.Round(tx.PaymentQuantity).Equal(tx.PaymentQuantity) {
		return tx, invalid("paymentQuantity", "%s has more than %d decimals for %s", tx.PaymentQuantity, src.Class.Decimals(), src.Symbol)
	}
	return tx, nil
}
