package chart

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"fx-alert-bot/internal/domain/marketdata"
)

// Client 呼叫外部繪圖服務，取得 PNG 格式的 K 線圖。
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 建立繪圖服務 client。
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Render 產生指定 symbol/timeframe 的圖；alertPrice 非 nil 時會在圖上
// 畫出目標價位線。繪圖服務回 404 視為無資料、400 視為不支援的 timeframe。
func (c *Client) Render(ctx context.Context, symbol, timeframe string, alertPrice *float64, outputsize int) ([]byte, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("chart: renderer url not configured")
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("timeframe", timeframe)
	if outputsize > 0 {
		params.Set("outputsize", strconv.Itoa(outputsize))
	}
	if alertPrice != nil {
		params.Set("alert_price", strconv.FormatFloat(*alertPrice, 'f', -1, 64))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/render?"+params.Encode(), nil)
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
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: chart for %s %s", marketdata.ErrNoData, symbol, timeframe)
	case http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", marketdata.ErrInvalidTimeframe, timeframe)
	default:
		return nil, fmt.Errorf("chart: status %d: %s", resp.StatusCode, string(body))
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty chart for %s %s", marketdata.ErrNoData, symbol, timeframe)
	}
	return body, nil
}
