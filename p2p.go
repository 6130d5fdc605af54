package cryptofolio

// P2PAverageRate returns the weighted-average rate paid for an asset on P2P
// buys settled in fiat: the total fiat paid divided by the total quantity
// received. It returns false when there is no such buy.
func (l *Ledger) P2PAverageRate(symbol, fiat string) (Money, bool) {
	var paid Money
	var received Quantity
	for _, tx := range l.Transactions(ByAsset(symbol), isP2PBuyIn(fiat)) {
		paid = paid.Add(tx.P2P.FiatAmount)
		received = received.Add(tx.Quantity)
	}
	if received.IsZero() {
		return Money{}, false
	}
	return paid.Div(received), true
}

func isP2PBuyIn(fiat string) func(Transaction) bool {
	return func(tx Transaction) bool {
		return tx.Command == CmdBuy && tx.P2P != nil && tx.P2P.FiatAmount.Currency() == fiat
	}
}
