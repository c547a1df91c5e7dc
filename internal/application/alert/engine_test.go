package alert

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	alertDomain "fx-alert-bot/internal/domain/alert"
	marketDomain "fx-alert-bot/internal/domain/marketdata"
)

type fakeNotifier struct {
	mu      sync.Mutex
	texts   []string
	photos  []string
	textErr error
}

func (f *fakeNotifier) SendText(_ context.Context, recipient, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.textErr != nil {
		return f.textErr
	}
	f.texts = append(f.texts, recipient+": "+text)
	return nil
}

func (f *fakeNotifier) SendPhoto(_ context.Context, recipient string, _ []byte, filename, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, recipient+": "+filename)
	return nil
}

type fakeCharts struct {
	mu sync.Mutex
	// timeframe -> error
	errs  map[string]error
	calls []string
}

func (f *fakeCharts) Render(_ context.Context, symbol, timeframe string, _ *float64, _ int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, symbol+" "+timeframe)
	if err := f.errs[timeframe]; err != nil {
		return nil, err
	}
	return []byte{0x89, 0x50}, nil
}

func TestEngine_Run(t *testing.T) {
	t.Run("no_pending_alerts_does_nothing", func(t *testing.T) {
		prices := newFakePrices()
		engine := NewEngine(&fakeRepo{}, prices, &fakeNotifier{}, &fakeCharts{}, 2, 50)

		if err := engine.Run(context.Background()); err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(prices.calls) != 0 {
			t.Error("empty run must not fetch prices")
		}
	})

	t.Run("one_price_fetch_per_symbol", func(t *testing.T) {
		repo := &fakeRepo{pending: []alertDomain.Alert{
			{ID: "a-1", UserRef: "c1", Symbol: "EUR/USD", TargetPrice: 2.0, Direction: alertDomain.DirectionAbove, Timeframes: "1h"},
			{ID: "a-2", UserRef: "c2", Symbol: "EUR/USD", TargetPrice: 3.0, Direction: alertDomain.DirectionAbove, Timeframes: "1h"},
			{ID: "a-3", UserRef: "c3", Symbol: "GBP/USD", TargetPrice: 2.0, Direction: alertDomain.DirectionAbove, Timeframes: "1h"},
		}}
		prices := newFakePrices()
		prices.quotes["EUR/USD"] = marketDomain.Quote{Price: 1.2}
		prices.quotes["GBP/USD"] = marketDomain.Quote{Price: 1.1}
		engine := NewEngine(repo, prices, &fakeNotifier{}, &fakeCharts{}, 2, 50)

		if err := engine.Run(context.Background()); err != nil {
			t.Fatalf("run: %v", err)
		}
		if prices.calls["EUR/USD"] != 1 || prices.calls["GBP/USD"] != 1 {
			t.Errorf("expected one fetch per symbol, got %v", prices.calls)
		}
	})

	t.Run("triggered_alert_notifies_with_charts", func(t *testing.T) {
		repo := &fakeRepo{pending: []alertDomain.Alert{
			{ID: "a-1", UserRef: "c1", Symbol: "EUR/USD", TargetPrice: 1.25, Direction: alertDomain.DirectionAbove, Timeframes: "15m,1h"},
		}}
		prices := newFakePrices()
		prices.quotes["EUR/USD"] = marketDomain.Quote{Price: 1.26, Bid: 1.259, Ask: 1.261}
		notifier := &fakeNotifier{}
		charts := &fakeCharts{}
		engine := NewEngine(repo, prices, notifier, charts, 2, 50)

		if err := engine.Run(context.Background()); err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(repo.marked) != 1 || repo.marked[0] != "a-1" {
			t.Fatalf("expected a-1 marked, got %v", repo.marked)
		}
		if len(notifier.texts) != 1 {
			t.Fatalf("expected 1 text, got %v", notifier.texts)
		}
		if !strings.Contains(notifier.texts[0], "EUR/USD") || !strings.Contains(notifier.texts[0], "Bid/Ask") {
			t.Errorf("notification missing detail: %q", notifier.texts[0])
		}
		if len(notifier.photos) != 2 {
			t.Errorf("expected a chart per timeframe, got %v", notifier.photos)
		}
	})

	t.Run("below_direction", func(t *testing.T) {
		repo := &fakeRepo{pending: []alertDomain.Alert{
			{ID: "a-1", UserRef: "c1", Symbol: "EUR/USD", TargetPrice: 1.25, Direction: alertDomain.DirectionBelow, Timeframes: "1h"},
		}}
		prices := newFakePrices()
		prices.quotes["EUR/USD"] = marketDomain.Quote{Price: 1.24}
		notifier := &fakeNotifier{}
		engine := NewEngine(repo, prices, notifier, &fakeCharts{}, 2, 50)

		if err := engine.Run(context.Background()); err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(repo.marked) != 1 {
			t.Errorf("expected trigger at or under target, marked=%v", repo.marked)
		}
	})

	t.Run("unmet_alert_left_alone", func(t *testing.T) {
		repo := &fakeRepo{pending: []alertDomain.Alert{
			{ID: "a-1", UserRef: "c1", Symbol: "EUR/USD", TargetPrice: 2.0, Direction: alertDomain.DirectionAbove, Timeframes: "1h"},
		}}
		prices := newFakePrices()
		prices.quotes["EUR/USD"] = marketDomain.Quote{Price: 1.2}
		notifier := &fakeNotifier{}
		engine := NewEngine(repo, prices, notifier, &fakeCharts{}, 2, 50)

		if err := engine.Run(context.Background()); err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(repo.marked) != 0 || len(notifier.texts) != 0 {
			t.Errorf("unmet alert must stay pending, marked=%v texts=%v", repo.marked, notifier.texts)
		}
	})

	t.Run("price_failure_skips_group_only", func(t *testing.T) {
		repo := &fakeRepo{pending: []alertDomain.Alert{
			{ID: "a-1", UserRef: "c1", Symbol: "EUR/USD", TargetPrice: 1.0, Direction: alertDomain.DirectionAbove, Timeframes: "1h"},
			{ID: "a-2", UserRef: "c2", Symbol: "GBP/USD", TargetPrice: 1.0, Direction: alertDomain.DirectionAbove, Timeframes: "1h"},
		}}
		prices := newFakePrices()
		prices.errs["EUR/USD"] = marketDomain.ErrNoData
		prices.quotes["GBP/USD"] = marketDomain.Quote{Price: 1.5}
		engine := NewEngine(repo, prices, &fakeNotifier{}, &fakeCharts{}, 2, 50)

		if err := engine.Run(context.Background()); err != nil {
			t.Fatalf("a failing group must not fail the run: %v", err)
		}
		if len(repo.marked) != 1 || repo.marked[0] != "a-2" {
			t.Errorf("expected only a-2 marked, got %v", repo.marked)
		}
	})

	t.Run("deleted_alert_skipped_silently", func(t *testing.T) {
		repo := &fakeRepo{
			pending: []alertDomain.Alert{
				{ID: "a-1", UserRef: "c1", Symbol: "EUR/USD", TargetPrice: 1.0, Direction: alertDomain.DirectionAbove, Timeframes: "1h"},
			},
			gone: map[string]bool{"a-1": true},
		}
		prices := newFakePrices()
		prices.quotes["EUR/USD"] = marketDomain.Quote{Price: 1.5}
		notifier := &fakeNotifier{}
		engine := NewEngine(repo, prices, notifier, &fakeCharts{}, 2, 50)

		if err := engine.Run(context.Background()); err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(notifier.texts) != 0 {
			t.Errorf("deleted alert must not notify, got %v", notifier.texts)
		}
	})

	t.Run("chart_failure_isolated_per_timeframe", func(t *testing.T) {
		repo := &fakeRepo{pending: []alertDomain.Alert{
			{ID: "a-1", UserRef: "c1", Symbol: "EUR/USD", TargetPrice: 1.0, Direction: alertDomain.DirectionAbove, Timeframes: "15m,1h,4h"},
		}}
		prices := newFakePrices()
		prices.quotes["EUR/USD"] = marketDomain.Quote{Price: 1.5}
		notifier := &fakeNotifier{}
		charts := &fakeCharts{errs: map[string]error{"1h": errors.New("render failed")}}
		engine := NewEngine(repo, prices, notifier, charts, 2, 50)

		if err := engine.Run(context.Background()); err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(charts.calls) != 3 {
			t.Errorf("every timeframe must be attempted, got %v", charts.calls)
		}
		if len(notifier.photos) != 2 {
			t.Errorf("expected 2 delivered charts, got %v", notifier.photos)
		}
		var warned bool
		for _, text := range notifier.texts {
			if strings.Contains(text, "⚠️") && strings.Contains(text, "1h") {
				warned = true
			}
		}
		if !warned {
			t.Errorf("expected a warning for the failed chart, texts=%v", notifier.texts)
		}
	})
}
