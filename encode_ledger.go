package cryptofolio

import (
	"bufio"
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// amountField is a specialized struct to read money stored in two fields.
type amountField struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (a amountField) Money() Money {
	return M(a.Amount, a.Currency)
}

// declareLine is the persisted form of an asset declaration.
type declareLine struct {
	Command CommandType `json:"command"`
	Asset
}

// correctLine is the persisted form of a correction: the whole corrected
// transaction, never a partial edit.
type correctLine struct {
	Command     CommandType   `json:"command"`
	ID          TransactionID `json:"id"`
	At          time.Time     `json:"at"`
	Reason      string        `json:"reason,omitempty"`
	Transaction Transaction   `json:"transaction"`
}

// DecodeLedger decodes a ledger from a stream of JSONL data. Every line is
// replayed through the ledger API, so a decoded ledger passed the same checks
// as one built by hand. opts configure the returned ledger; a store given with
// WithStore only receives writes made after decoding.
func DecodeLedger(r io.Reader, opts ...Option) (*Ledger, error) {
	ledger := NewLedger(opts...)
	store := ledger.store
	ledger.store = nil

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}
		if err := decodeLine(ledger, line); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	ledger.store = store
	return ledger, nil
}

func decodeLine(ledger *Ledger, line []byte) error {
	var identifier struct {
		Command CommandType `json:"command"`
	}
	if err := json.Unmarshal(line, &identifier); err != nil {
		return fmt.Errorf("could not identify command in line %q: %w", string(line), err)
	}

	switch identifier.Command {
	case CmdDeclare:
		var decl declareLine
		if err := json.Unmarshal(line, &decl); err != nil {
			return err
		}
		return ledger.Declare(decl.Asset)
	case CmdBuy, CmdSell:
		var tx Transaction
		if err := json.Unmarshal(line, &tx); err != nil {
			return err
		}
		_, err := ledger.Record(tx)
		return err
	case CmdCorrect:
		var c correctLine
		if err := json.Unmarshal(line, &c); err != nil {
			return err
		}
		ledger.mu.Lock()
		defer ledger.mu.Unlock()
		_, err := ledger.correct(c.ID, replaceWith(c.Transaction, c.Reason), c.At)
		return err
	default:
		return fmt.Errorf("unknown ledger command: %q", identifier.Command)
	}
}

// replaceWith returns the correction that turns any transaction into tx.
func replaceWith(tx Transaction, reason string) Correction {
	return Correction{
		Quantity:        &tx.Quantity,
		Price:           &tx.Price,
		Fee:             &tx.Fee,
		PaymentSource:   &tx.PaymentSource,
		PaymentQuantity: &tx.PaymentQuantity,
		Time:            &tx.Time,
		Note:            &tx.Note,
		Reason:          reason,
		paymentDerived:  tx.paymentDerived,
		p2p:             tx.P2P,
	}
}

// EncodeTransaction marshals a single transaction to JSON and writes it to the
// writer, followed by a newline, in JSONL format.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	return writeLine(w, tx)
}

// EncodeAsset writes the declaration of an asset as a JSONL line.
func EncodeAsset(w io.Writer, a Asset) error {
	return writeLine(w, declareLine{Command: CmdDeclare, Asset: a})
}

// EncodeCorrection writes a correction as a JSONL line.
func EncodeCorrection(w io.Writer, rec CorrectionRecord) error {
	return writeLine(w, correctLine{
		Command:     CmdCorrect,
		ID:          rec.After.ID,
		At:          rec.At.UTC(),
		Reason:      rec.Reason,
		Transaction: rec.After,
	})
}

func writeLine(w io.Writer, v any) error {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	if _, err := w.Write(append(jsonData, '\n')); err != nil {
		return fmt.Errorf("failed to write %T: %w", v, err)
	}
	return nil
}

// EncodeLedger persists a ledger to an io.Writer in JSONL format: asset
// declarations first, then transactions in the order they were recorded, each
// in its original form, with corrections interleaved where they happened.
// Decoding the output rebuilds the same ledger, audit trail included.
func EncodeLedger(w io.Writer, ledger *Ledger) error {
	for _, a := range ledger.Assets() {
		if err := EncodeAsset(w, a); err != nil {
			return err
		}
	}

	corrections := ledger.Corrections()
	original := make(map[TransactionID]Transaction)
	for _, rec := range corrections {
		if _, seen := original[rec.Before.ID]; !seen {
			original[rec.Before.ID] = rec.Before
		}
	}
	txs := ledger.All()
	slices.SortFunc(txs, func(a, b Transaction) int { return cmp.Compare(a.seq, b.seq) })

	next := 0
	for _, tx := range txs {
		if first, ok := original[tx.ID]; ok {
			tx = first
		}
		if err := EncodeTransaction(w, tx); err != nil {
			return err
		}
		for ; next < len(corrections) && corrections[next].seq <= tx.seq; next++ {
			if err := EncodeCorrection(w, corrections[next]); err != nil {
				return err
			}
		}
	}
	return nil
}
