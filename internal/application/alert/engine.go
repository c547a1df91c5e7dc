package alert

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	alertDomain "fx-alert-bot/internal/domain/alert"
	marketDomain "fx-alert-bot/internal/domain/marketdata"
)

// Notifier 寄送通知給使用者。
type Notifier interface {
	SendText(ctx context.Context, recipient, text string) error
	SendPhoto(ctx context.Context, recipient string, photo []byte, filename, caption string) error
}

// ChartRenderer 產生 K 線圖。
type ChartRenderer interface {
	Render(ctx context.Context, symbol, timeframe string, alertPrice *float64, outputsize int) ([]byte, error)
}

// Engine 逐輪評估所有未觸發警報並送出通知。每一輪獨立、無狀態。
type Engine struct {
	repo        Repository
	prices      PriceSource
	notifier    Notifier
	charts      ChartRenderer
	concurrency int
	chartSize   int
}

// NewEngine 建立評估引擎；concurrency 為同時處理的 symbol 群組數。
func NewEngine(repo Repository, prices PriceSource, notifier Notifier, charts ChartRenderer, concurrency, chartSize int) *Engine {
	if concurrency <= 0 {
		concurrency = 4
	}
	if chartSize <= 0 {
		chartSize = 100
	}
	return &Engine{
		repo:        repo,
		prices:      prices,
		notifier:    notifier,
		charts:      charts,
		concurrency: concurrency,
		chartSize:   chartSize,
	}
}

// Run 執行一輪評估：載入未觸發警報、依 symbol 分組、每組抓一次價。
// 抓價失敗跳過整組；單筆警報的錯誤只記 log，不中斷整輪。
func (e *Engine) Run(ctx context.Context) error {
	runID := uuid.NewString()[:8]

	pending, err := e.repo.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending alerts: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	groups := map[string][]alertDomain.Alert{}
	for _, a := range pending {
		symbol := marketDomain.NormalizeSymbol(a.Symbol)
		groups[symbol] = append(groups[symbol], a)
	}
	log.Printf("[AlertEngine] run %s: %d pending alerts across %d symbols", runID, len(pending), len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for symbol, alerts := range groups {
		symbol, alerts := symbol, alerts
		g.Go(func() error {
			quote, err := e.prices.GetPrice(gctx, symbol)
			if err != nil {
				log.Printf("[AlertEngine] run %s: price unavailable for %s, skipping %d alerts: %v",
					runID, symbol, len(alerts), err)
				return nil
			}
			for _, a := range alerts {
				e.evaluate(gctx, runID, a, quote)
			}
			return nil
		})
	}
	return g.Wait()
}

// evaluate 評估單筆警報；觸發時標記並通知。標記是條件式更新，
// 同一筆警報最多只會通知一次。
func (e *Engine) evaluate(ctx context.Context, runID string, a alertDomain.Alert, quote marketDomain.Quote) {
	if !a.Met(quote.Price) {
		return
	}

	marked, err := e.repo.MarkTriggered(ctx, a.ID)
	if err != nil {
		log.Printf("[AlertEngine] run %s: mark triggered failed for alert %s: %v", runID, a.ID, err)
		return
	}
	if marked == nil {
		// 警報在評估期間被刪除
		return
	}
	log.Printf("[AlertEngine] run %s: alert %s triggered (%s %s %.5f, current %.5f)",
		runID, a.ID, a.Symbol, a.Direction, a.TargetPrice, quote.Price)

	text := fmt.Sprintf("📢 %s reached your target %.5f (%s)\nCurrent price: %.5f",
		a.Symbol, a.TargetPrice, a.Direction, quote.Price)
	if quote.HasSpread() {
		text += fmt.Sprintf("\nBid/Ask: %.5f / %.5f", quote.Bid, quote.Ask)
	}
	if err := e.notifier.SendText(ctx, a.UserRef, text); err != nil {
		log.Printf("[AlertEngine] run %s: notify failed for alert %s: %v", runID, a.ID, err)
	}

	e.sendCharts(ctx, runID, a)
}

// sendCharts 為警報的每個 timeframe 各送一張圖；單張失敗不影響其他張，
// 並以簡短警告訊息回報使用者。
func (e *Engine) sendCharts(ctx context.Context, runID string, a alertDomain.Alert) {
	target := a.TargetPrice
	for _, tf := range a.TimeframeList() {
		img, err := e.charts.Render(ctx, a.Symbol, tf, &target, e.chartSize)
		if err != nil {
			log.Printf("[AlertEngine] run %s: chart render failed for %s %s: %v", runID, a.Symbol, tf, err)
			warn := fmt.Sprintf("⚠️ Chart for %s %s is unavailable right now", a.Symbol, tf)
			if err := e.notifier.SendText(ctx, a.UserRef, warn); err != nil {
				log.Printf("[AlertEngine] run %s: chart warning failed for alert %s: %v", runID, a.ID, err)
			}
			continue
		}
		filename := fmt.Sprintf("%s_%s.png", strings.ReplaceAll(a.Symbol, "/", ""), tf)
		caption := fmt.Sprintf("%s %s", a.Symbol, tf)
		if err := e.notifier.SendPhoto(ctx, a.UserRef, img, filename, caption); err != nil {
			log.Printf("[AlertEngine] run %s: send chart failed for %s %s: %v", runID, a.Symbol, tf, err)
		}
	}
}
