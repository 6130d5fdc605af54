package renderer

import (
	"fmt"
	"io"

	"github.com/etnz/cryptofolio"
)

// Transaction renders a transaction to a one line sentence.
func Transaction(tx cryptofolio.Transaction) string {
	var s string
	switch {
	case tx.Command == cryptofolio.CmdSell:
		s = fmt.Sprintf("Sold %s %s at %s", tx.Quantity, tx.Asset, tx.Price)
	case tx.IsCrossAsset():
		s = fmt.Sprintf("Bought %s %s at %s with %s %s", tx.Quantity, tx.Asset, tx.Price, tx.PaymentQuantity, tx.PaymentSource)
	default:
		s = fmt.Sprintf("Bought %s %s at %s", tx.Quantity, tx.Asset, tx.Price)
	}
	if !tx.Fee.IsZero() {
		s += fmt.Sprintf(" (fee %s)", tx.Fee)
	}
	if tx.P2P != nil && tx.P2P.Platform != "" {
		s += " on " + tx.P2P.Platform
	}
	return s
}

// LogMarkdown renders the transaction log and the audit trail of corrections.
func LogMarkdown(txs []cryptofolio.Transaction, corrections []cryptofolio.CorrectionRecord) string {
	r := newRenderer()
	r.Printf("# Transactions\n\n")
	if len(txs) == 0 {
		r.Printf("No transactions recorded.\n")
	} else {
		rows := make([][]string, 0, len(txs))
		for _, tx := range txs {
			rows = append(rows, []string{
				tx.Time.Format("2006-01-02 15:04"),
				string(tx.ID),
				Transaction(tx),
				tx.Amount().String(),
				escape(tx.Note),
			})
		}
		table(r, "lllrl", []string{"Date", "ID", "Transaction", "Amount", "Note"}, rows)
	}

	ConditionalBlock(r, func(w io.Writer) bool {
		if len(corrections) == 0 {
			return false
		}
		fmt.Fprintf(w, "## Corrections\n\n")
		rows := make([][]string, 0, len(corrections))
		for _, c := range corrections {
			rows = append(rows, []string{
				c.At.Format("2006-01-02 15:04"),
				string(c.After.ID),
				Transaction(c.Before),
				Transaction(c.After),
				escape(c.Reason),
			})
		}
		table(w, "lllll", []string{"Date", "ID", "Before", "After", "Reason"}, rows)
		return true
	})
	return r.String()
}
