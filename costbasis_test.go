package cryptofolio

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

// position replays the ledger with a policy and returns the position of symbol.
func position(t *testing.T, l *Ledger, policy RedeploymentPolicy, symbol string) Position {
	t.Helper()
	positions, err := Calculator{Policy: policy}.Positions(l.All())
	if err != nil {
		t.Fatalf("Positions() failed: %v", err)
	}
	for _, p := range positions {
		if p.Asset == symbol {
			return p
		}
	}
	t.Fatalf("no position for %s", symbol)
	return Position{}
}

func TestCalculator_TotalInvested(t *testing.T) {
	buys := []Transaction{
		NewBuy(day(1, 1), "", "BTC", Q(0.5), USD(40000)).WithFee(USD(12.5)),
		NewBuy(day(2, 1), "", "BTC", Q(0.25), USD(44000)).WithFee(USD(3)),
		NewBuy(day(3, 1), "", "BTC", Q(0.125), USD(52000)),
	}
	// 20000 + 12.5 + 11000 + 3 + 6500
	want := USD(37515.5)

	orders := map[string][]int{
		"chronological": {0, 1, 2},
		"reversed":      {2, 1, 0},
		"shuffled":      {1, 2, 0},
	}
	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			l := newTestLedger(t)
			for _, i := range order {
				mustRecord(t, l, buys[i])
			}
			p := position(t, l, Transfer, "BTC")
			if !p.TotalInvested.Equal(want) {
				t.Errorf("TotalInvested = %v, want %v", p.TotalInvested, want)
			}
			if want := Q(0.875); !p.Holdings.Equal(want) {
				t.Errorf("Holdings = %s, want %s", p.Holdings, want)
			}
		})
	}
}

func TestCalculator_WeightedAverage(t *testing.T) {
	l := newTestLedger(t)
	mustRecord(t, l,
		NewBuy(day(1, 1), "", "ETH", Q(1), USD(100)),
		NewBuy(day(1, 2), "", "ETH", Q(2), USD(130)),
		NewBuy(day(1, 3), "", "ETH", Q(1), USD(200)),
	)

	// (1x100 + 2x130 + 1x200) / 4
	p := position(t, l, Transfer, "ETH")
	if want := USD(140); !p.AverageCost().Equal(want) {
		t.Errorf("AverageCost() = %v, want %v", p.AverageCost(), want)
	}
	if want := USD(560); !p.CostBasis().Equal(want) {
		t.Errorf("CostBasis() = %v, want %v", p.CostBasis(), want)
	}

	// partial sells do not change the average cost.
	mustRecord(t, l, NewSell(day(1, 4), "", "ETH", Q(2), USD(150)).WithFee(USD(4)))
	p = position(t, l, Transfer, "ETH")
	if want := USD(140); !p.AverageCost().Equal(want) {
		t.Errorf("AverageCost() after sell = %v, want %v", p.AverageCost(), want)
	}
	if want := USD(296); !p.TotalSold.Equal(want) {
		t.Errorf("TotalSold = %v, want %v", p.TotalSold, want)
	}
	// 296 - 2x140
	if want := USD(16); !p.RealizedPnL.Equal(want) {
		t.Errorf("RealizedPnL = %v, want %v", p.RealizedPnL, want)
	}
	if want := USD(264); !p.NetInvested().Equal(want) {
		t.Errorf("NetInvested() = %v, want %v", p.NetInvested(), want)
	}
	// (170 - 140) x 2
	if want := USD(60); !p.UnrealizedPnL(USD(170)).Equal(want) {
		t.Errorf("UnrealizedPnL(170) = %v, want %v", p.UnrealizedPnL(USD(170)), want)
	}
}

func TestCalculator_P2PRate(t *testing.T) {
	l := newTestLedger(t)
	tx := NewP2P(day(1, 1), "", CmdBuy, "USDT", Q(1000), P2PDetails{
		FiatAmount:    VND(25_500_000),
		Rate:          VND(25_500),
		Platform:      "Binance P2P",
		PaymentMethod: "bank transfer",
	})
	mustRecord(t, l, tx)

	p := position(t, l, Transfer, "USDT")
	if want := VND(25_500); !p.AverageCost().Equal(want) {
		t.Errorf("AverageCost() = %v, want %v", p.AverageCost(), want)
	}
	if want := VND(25_500_000); !p.TotalInvested.Equal(want) {
		t.Errorf("TotalInvested = %v, want %v", p.TotalInvested, want)
	}

	t.Run("rate outside tolerance", func(t *testing.T) {
		bad := NewP2P(day(1, 2), "", CmdBuy, "USDT", Q(1000), P2PDetails{FiatAmount: VND(25_500_000), Rate: VND(25_500.5)})
		var verr *ValidationError
		if _, err := l.Record(bad); !errors.As(err, &verr) || verr.Field != "rate" {
			t.Errorf("Record() error = %v, want a rate ValidationError", err)
		}
	})
	t.Run("rate within tolerance", func(t *testing.T) {
		ok := NewP2P(day(1, 2), "", CmdBuy, "USDT", Q(1000), P2PDetails{FiatAmount: VND(25_500_000), Rate: VND(25_500.005)})
		if _, err := l.Record(ok); err != nil {
			t.Errorf("Record() failed: %v", err)
		}
	})
}

func TestCalculator_CrossAssetPayment(t *testing.T) {
	l := newTestLedger(t)
	mustRecord(t, l,
		NewBuy(day(1, 1), "", "USDT", Q(100), USD(1)),
		NewBuy(day(2, 1), "", "BTC", Q(0.001), USD(50000)).PaidWith("USDT", Q(0)),
	)

	for _, policy := range []RedeploymentPolicy{Transfer, Disposal} {
		t.Run(policy.String(), func(t *testing.T) {
			btc := position(t, l, policy, "BTC")
			if !btc.TotalInvested.Equal(USD(0)) {
				t.Errorf("BTC TotalInvested = %v, want 0", btc.TotalInvested)
			}
			if !btc.CrossAssetPayments.Equal(USD(50)) {
				t.Errorf("BTC CrossAssetPayments = %v, want 50", btc.CrossAssetPayments)
			}
			if !btc.Holdings.Equal(Q(0.001)) {
				t.Errorf("BTC Holdings = %s, want 0.001", btc.Holdings)
			}

			usdt := position(t, l, policy, "USDT")
			if !usdt.Holdings.Equal(Q(50)) {
				t.Errorf("USDT Holdings = %s, want 50", usdt.Holdings)
			}
			if !usdt.RedeployedQuantity.Equal(Q(50)) {
				t.Errorf("USDT RedeployedQuantity = %s, want 50", usdt.RedeployedQuantity)
			}
			if !usdt.SoldQuantity.IsZero() || !usdt.TotalSold.IsZero() {
				t.Errorf("USDT redeployment counted as a sell: %s, %v", usdt.SoldQuantity, usdt.TotalSold)
			}
			if !usdt.TotalInvested.Equal(USD(100)) {
				t.Errorf("USDT TotalInvested = %v, want 100", usdt.TotalInvested)
			}
		})
	}
}

func TestCalculator_RedeploymentPolicy(t *testing.T) {
	l := newTestLedger(t)
	mustRecord(t, l,
		NewBuy(day(1, 1), "", "ETH", Q(1), USD(2000)),
		// 0.2 ETH bought 400 and is now worth 500.
		NewBuy(day(2, 1), "", "BTC", Q(0.01), USD(50000)).PaidWith("ETH", Q(0.2)),
	)

	testCases := []struct {
		policy      RedeploymentPolicy
		ethRealized Money
		btcAverage  Money
	}{
		{Transfer, USD(0), USD(0)},
		{Disposal, USD(100), USD(50000)},
	}
	for _, tc := range testCases {
		t.Run(tc.policy.String(), func(t *testing.T) {
			eth := position(t, l, tc.policy, "ETH")
			if !eth.RealizedPnL.Equal(tc.ethRealized) {
				t.Errorf("ETH RealizedPnL = %v, want %v", eth.RealizedPnL, tc.ethRealized)
			}
			if !eth.Holdings.Equal(Q(0.8)) {
				t.Errorf("ETH Holdings = %s, want 0.8", eth.Holdings)
			}
			if !eth.AverageCost().Equal(USD(2000)) {
				t.Errorf("ETH AverageCost() = %v, want 2000", eth.AverageCost())
			}

			btc := position(t, l, tc.policy, "BTC")
			if !btc.AverageCost().Equal(tc.btcAverage) {
				t.Errorf("BTC AverageCost() = %v, want %v", btc.AverageCost(), tc.btcAverage)
			}
			if !btc.TotalInvested.IsZero() {
				t.Errorf("BTC TotalInvested = %v, want 0", btc.TotalInvested)
			}
		})
	}
}

func TestCalculator_DisposalCurrencyMismatch(t *testing.T) {
	l := newTestLedger(t)
	mustRecord(t, l,
		// 25,500 VND per USDT.
		NewP2P(day(1, 1), "", CmdBuy, "USDT", Q(100), P2PDetails{FiatAmount: VND(2_550_000)}),
		NewBuy(day(2, 1), "", "BTC", Q(0.001), USD(50000)).PaidWith("USDT", Q(50)),
	)

	// transfer only moves quantities.
	if _, err := (Calculator{Policy: Transfer}).Positions(l.All()); err != nil {
		t.Fatalf("Positions(transfer) failed: %v", err)
	}

	t.Run("without rates", func(t *testing.T) {
		var ierr *DataIntegrityError
		if _, err := (Calculator{Policy: Disposal}).Positions(l.All()); !errors.As(err, &ierr) {
			t.Errorf("Positions(disposal) error = %v, want a DataIntegrityError", err)
		}
	})

	t.Run("missing rate", func(t *testing.T) {
		var qerr *MissingQuoteError
		if _, err := (Calculator{Policy: Disposal, Rates: NewQuotes()}).Positions(l.All()); !errors.As(err, &qerr) {
			t.Errorf("Positions(disposal) error = %v, want a MissingQuoteError", err)
		}
	})

	t.Run("converted", func(t *testing.T) {
		rates := NewQuotes()
		rates.SetRate("USD", "VND", decimal.NewFromInt(25_600))
		positions, err := Calculator{Policy: Disposal, Rates: rates}.Positions(l.All())
		if err != nil {
			t.Fatalf("Positions(disposal) failed: %v", err)
		}
		btc, usdt := positions[0], positions[1]
		// 50 USD = 1,280,000 VND for 50 USDT that cost 1,275,000 VND.
		if want := VND(5_000); !usdt.RealizedPnL.Equal(want) {
			t.Errorf("USDT RealizedPnL = %v, want %v", usdt.RealizedPnL, want)
		}
		if want := USD(50000); !btc.AverageCost().Equal(want) {
			t.Errorf("BTC AverageCost() = %v, want %v", btc.AverageCost(), want)
		}
	})
}

func TestCalculator_P2PFiatAmount(t *testing.T) {
	l := newTestLedger(t)
	ids := mustRecord(t, l,
		// 1,000,000 VND do not divide evenly by 3.
		NewP2P(day(1, 1), "", CmdBuy, "USDT", Q(3), P2PDetails{FiatAmount: VND(1_000_000)}),
		NewP2P(day(1, 2), "", CmdSell, "USDT", Q(3), P2PDetails{FiatAmount: VND(1_100_000)}),
	)

	p := position(t, l, Transfer, "USDT")
	if want := VND(1_000_000); !p.TotalInvested.Equal(want) {
		t.Errorf("TotalInvested = %v, want %v", p.TotalInvested, want)
	}
	if want := VND(1_100_000); !p.TotalSold.Equal(want) {
		t.Errorf("TotalSold = %v, want %v", p.TotalSold, want)
	}

	t.Run("quantity correction keeps the fiat paid", func(t *testing.T) {
		q := Q(4)
		after, err := l.Correct(ids[0], Correction{Quantity: &q, Reason: "miscounted"})
		if err != nil {
			t.Fatalf("Correct() failed: %v", err)
		}
		if want := VND(1_000_000); !after.Amount().Equal(want) || !after.P2P.FiatAmount.Equal(want) {
			t.Errorf("Amount() = %v, FiatAmount = %v, want %v", after.Amount(), after.P2P.FiatAmount, want)
		}
		if want := VND(250_000); !after.Price.Equal(want) {
			t.Errorf("Price = %v, want %v", after.Price, want)
		}
	})

	t.Run("price correction changes the fiat paid", func(t *testing.T) {
		price := VND(300_000)
		after, err := l.Correct(ids[0], Correction{Price: &price, Reason: "wrong rate"})
		if err != nil {
			t.Fatalf("Correct() failed: %v", err)
		}
		if want := VND(1_200_000); !after.P2P.FiatAmount.Equal(want) {
			t.Errorf("FiatAmount = %v, want %v", after.P2P.FiatAmount, want)
		}
		before := l.Corrections()[0].After
		if !before.P2P.FiatAmount.Equal(VND(1_000_000)) {
			t.Errorf("earlier correction was mutated: FiatAmount = %v", before.P2P.FiatAmount)
		}
	})
}
