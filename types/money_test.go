package types

import (
	"encoding/json"
	"testing"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
		display  string
	}{
		{"USD", USD(999), 999, "usd", "$9.99"},
		{"EUR", EUR(1549), 1549, "eur", "€15.49"},
		{"GBP", GBP(699), 699, "gbp", "£6.99"},
		{"JPY via New", New(100, "JPY"), 100, "jpy", "¥100"},
		{"Zero USD", Zero("USD"), 0, "usd", "$0.00"},
		{"Unknown currency", New(500, "chf"), 500, "chf", "CHF 5.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return USD(100).Add(USD(200)) }, USD(300)},
		{"Subtract", func() Money { return USD(500).Subtract(USD(200)) }, USD(300)},
		{"Multiply", func() Money { return USD(100).Multiply(3) }, USD(300)},
		{"Complex", func() Money {
			return USD(1000).Add(USD(500)).Multiply(2).Subtract(USD(1000))
		}, USD(2000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for currency mismatch")
		}
	}()

	_ = USD(100).Add(EUR(100))
}

func TestMoneyComparisons(t *testing.T) {
	if !USD(100).LessThan(USD(200)) {
		t.Error("LessThan broken")
	}
	if !USD(200).GreaterThan(USD(100)) {
		t.Error("GreaterThan broken")
	}
	if !Zero("usd").IsZero() {
		t.Error("IsZero broken")
	}
	if !USD(1).IsPositive() || USD(-1).IsPositive() {
		t.Error("IsPositive broken")
	}
}

func TestMoneyFormatMajor(t *testing.T) {
	tests := []struct {
		money Money
		want  string
	}{
		{USD(999), "9.99"},
		{USD(1000), "10.00"},
		{USD(5), "0.05"},
		{USD(-1250), "-12.50"},
		{New(100, "jpy"), "100"},
	}

	for _, tt := range tests {
		if got := tt.money.FormatMajor(); got != tt.want {
			t.Errorf("FormatMajor(%v): got %s, want %s", tt.money, got, tt.want)
		}
	}
}

func TestSum(t *testing.T) {
	got := Sum(USD(100), USD(200), USD(300))
	if !got.Equal(USD(600)) {
		t.Errorf("got %v, want %v", got, USD(600))
	}

	empty := Sum()
	if empty.Amount != 0 {
		t.Errorf("empty sum: got %d, want 0", empty.Amount)
	}
}

func TestSumMismatchPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for mixed-currency Sum")
		}
	}()

	_ = Sum(USD(100), EUR(100))
}

func TestNaiveSum(t *testing.T) {
	tests := []struct {
		name         string
		values       []Money
		wantAmount   int64
		wantCurrency string
	}{
		{"same currency", []Money{USD(100), USD(200)}, 300, "usd"},
		{"mixed currencies add numerically", []Money{USD(999), EUR(1549), GBP(699)}, 3247, "usd"},
		{"first currency wins", []Money{EUR(100), USD(200)}, 300, "eur"},
		{"single value", []Money{GBP(450)}, 450, "gbp"},
		{"empty", nil, 0, "usd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NaiveSum(tt.values...)
			if got.Amount != tt.wantAmount {
				t.Errorf("amount: got %d, want %d", got.Amount, tt.wantAmount)
			}
			if got.Currency != tt.wantCurrency {
				t.Errorf("currency: got %s, want %s", got.Currency, tt.wantCurrency)
			}
		})
	}
}

func TestMoneyMarshalJSON(t *testing.T) {
	b, err := json.Marshal(USD(999))
	if err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Amount != 999 || decoded.Currency != "usd" || decoded.Display != "$9.99" {
		t.Errorf("unexpected JSON: %s", b)
	}
}
