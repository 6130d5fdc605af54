// Package cryptofolio keeps the books of a personal crypto portfolio. It is
// designed to be local-first and auditable: every figure is a pure function of
// an append-only ledger of transactions plus a table of current quotes.
//
// The core functionalities include:
//   - Ledger Management: recording buys and sells, including off-exchange P2P
//     trades, in a chronological record that rejects any transaction leaving
//     a holding negative. Corrections are explicit and audited.
//   - Cost Basis: weighted-average cost per asset, invested and sold capital,
//     realized and unrealized P&L.
//   - Cross-Asset Payments: a buy paid by spending another held asset (USDT
//     typically) never counts as new invested capital. Whether the spent
//     asset realizes P&L is chosen with a RedeploymentPolicy.
//   - Aggregation: portfolio totals in several display currencies, failing
//     loudly when a price or an exchange rate is missing.
//   - Data Persistence: encoding and decoding the ledger to and from JSONL,
//     a human-readable, version-controllable format.
//
// This package serves as the foundational logic for the `cfolio` command-line
// tool.
package cryptofolio
