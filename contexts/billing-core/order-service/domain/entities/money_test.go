package entities

import (
	"errors"
	"testing"

	domainerrors "memberhub/contexts/billing-core/order-service/domain/errors"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		cents   int64
		wantErr bool
	}{
		{name: "two fraction digits", input: "50.00", cents: 5000},
		{name: "one fraction digit pads", input: "-3.5", cents: -350},
		{name: "no fraction", input: "7", cents: 700},
		{name: "bare fraction", input: ".99", cents: 99},
		{name: "three fraction digits rejected", input: "1.005", wantErr: true},
		{name: "empty rejected", input: "", wantErr: true},
		{name: "garbage rejected", input: "fifty", wantErr: true},
		{name: "signed fraction rejected", input: "1.-5", wantErr: true},
		{name: "plus fraction rejected", input: "1.+5", wantErr: true},
		{name: "inner sign rejected", input: "1-2.00", wantErr: true},
		{name: "trailing dot rejected", input: "1.", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amount, err := ParseMoney(tc.input, "usd")
			if tc.wantErr {
				if !errors.Is(err, domainerrors.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q failed: %v", tc.input, err)
			}
			if amount.Cents != tc.cents {
				t.Fatalf("parse %q: got %d cents, want %d", tc.input, amount.Cents, tc.cents)
			}
			if amount.Currency != "USD" {
				t.Fatalf("currency not normalized: %s", amount.Currency)
			}
		})
	}
}

func TestMoneyStringRoundTrip(t *testing.T) {
	amount := NewMoney(2740, "USD")
	if amount.String() != "27.40" {
		t.Fatalf("got %s, want 27.40", amount.String())
	}
	negative := NewMoney(-5, "USD")
	if negative.String() != "-0.05" {
		t.Fatalf("got %s, want -0.05", negative.String())
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	usd := NewMoney(100, "USD")
	eur := NewMoney(100, "EUR")
	if _, err := usd.Add(eur); !errors.Is(err, domainerrors.ErrMoneyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
	if _, err := usd.Sub(eur); !errors.Is(err, domainerrors.ErrMoneyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
}
