package litefinance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"fx-alert-bot/internal/domain/marketdata"
)

const defaultBaseURL = "https://www.litefinance.org"

// Client 存取 LiteFinance 公開交易頁資料（免金鑰、無額度限制的主要資料源）。
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 建立 LiteFinance client；baseURL 留空使用正式站。
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type rateResponse struct {
	Status string  `json:"status"`
	Price  float64 `json:"price"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
}

// GetQuote 抓取即時報價，附帶買賣價。
func (c *Client) GetQuote(ctx context.Context, symbol string) (marketdata.Quote, error) {
	u := fmt.Sprintf("%s/trading/trading-instruments/rate/?symbol=%s", c.baseURL, url.QueryEscape(symbol))
	body, err := c.get(ctx, u)
	if err != nil {
		return marketdata.Quote{}, err
	}

	var out rateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return marketdata.Quote{}, fmt.Errorf("litefinance: decode rate: %w", err)
	}
	if out.Status != "success" {
		return marketdata.Quote{}, fmt.Errorf("litefinance: rate status %q", out.Status)
	}

	price := out.Price
	if price == 0 && out.Bid != 0 && out.Ask != 0 {
		price = (out.Bid + out.Ask) / 2
	}
	if price == 0 || math.IsNaN(price) {
		return marketdata.Quote{}, fmt.Errorf("litefinance: empty rate payload for %s", symbol)
	}
	return marketdata.Quote{
		Symbol: symbol,
		Price:  price,
		Bid:    out.Bid,
		Ask:    out.Ask,
		Source: "litefinance",
	}, nil
}

type chartResponse struct {
	Status  string          `json:"status"`
	Content [][]interface{} `json:"content"`
}

// GetChart 抓取 K 線。回傳依時間遞增排序的序列；非數值的列整列剔除。
// from/to 為 Unix 秒。
func (c *Client) GetChart(ctx context.Context, symbol string, periodMinutes int, from, to int64) ([]marketdata.Candle, error) {
	u := fmt.Sprintf("%s/trading/trading-instruments/chart/?symbol=%s&period=%d&from=%d&to=%d",
		c.baseURL, url.QueryEscape(symbol), periodMinutes, from, to)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var out chartResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("litefinance: decode chart: %w", err)
	}
	if out.Status != "success" {
		return nil, fmt.Errorf("litefinance: chart status %q", out.Status)
	}

	// content 每列為 [timestamp_ms, open, high, low, close]
	candles := make([]marketdata.Candle, 0, len(out.Content))
	for _, row := range out.Content {
		if len(row) < 5 {
			continue
		}
		ts, ok := asFloat(row[0])
		if !ok {
			continue
		}
		open, ok1 := asFloat(row[1])
		high, ok2 := asFloat(row[2])
		low, ok3 := asFloat(row[3])
		closeP, ok4 := asFloat(row[4])
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		candles = append(candles, marketdata.Candle{
			Time:  time.UnixMilli(int64(ts)).UTC(),
			Open:  open,
			High:  high,
			Low:   low,
			Close: closeP,
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	return candles, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("litefinance: status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// asFloat 寬鬆地將 JSON 欄位轉為有限浮點數；字串數字也接受。
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
