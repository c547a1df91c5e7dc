package marketdata

import (
	"errors"
	"testing"
)

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		"eurusd":    "EUR/USD",
		" EURUSD ":  "EUR/USD",
		"EUR/USD":   "EUR/USD",
		"eur/usd":   "EUR/USD",
		"btc-usd":   "BTC-USD",
		"XAUUSD":    "XAU/USD",
		"us30":      "US30",
		"":          "",
		"toolongly": "TOOLONGLY",
	}
	for in, want := range cases {
		if got := NormalizeSymbol(in); got != want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeSymbol_Idempotent(t *testing.T) {
	for _, in := range []string{"eurusd", "EUR/USD", "btc-usd", "us30", "gbpjpy"} {
		once := NormalizeSymbol(in)
		twice := NormalizeSymbol(once)
		if once != twice {
			t.Errorf("normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeTimeframe(t *testing.T) {
	cases := map[string]struct {
		token   string
		minutes int
	}{
		"1m":     {"1m", 1},
		"1min":   {"1m", 1},
		"15":     {"15m", 15},
		" 4H ":   {"4h", 240},
		"60":     {"1h", 60},
		"1day":   {"1d", 1440},
		"1w":     {"1w", 10080},
		"1month": {"1mo", 43200},
	}
	for in, want := range cases {
		tf, err := NormalizeTimeframe(in)
		if err != nil {
			t.Fatalf("NormalizeTimeframe(%q): %v", in, err)
		}
		if tf.Token != want.token || tf.Minutes != want.minutes {
			t.Errorf("NormalizeTimeframe(%q) = %+v, want %+v", in, tf, want)
		}
	}
}

func TestNormalizeTimeframe_Invalid(t *testing.T) {
	for _, in := range []string{"", "7x", "yearly", "0"} {
		if _, err := NormalizeTimeframe(in); !errors.Is(err, ErrInvalidTimeframe) {
			t.Errorf("NormalizeTimeframe(%q): expected ErrInvalidTimeframe, got %v", in, err)
		}
	}
}

func TestTimeframe_TDInterval(t *testing.T) {
	cases := map[string]string{
		"15m": "15min",
		"1h":  "1h",
		"4h":  "4h",
		"1d":  "1day",
		"1w":  "1week",
		"1mo": "1month",
	}
	for token, want := range cases {
		tf, err := NormalizeTimeframe(token)
		if err != nil {
			t.Fatalf("normalize %q: %v", token, err)
		}
		if got := tf.TDInterval(); got != want {
			t.Errorf("TDInterval(%s) = %q, want %q", token, got, want)
		}
	}
}
