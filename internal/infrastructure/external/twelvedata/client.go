package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fx-alert-bot/internal/domain/marketdata"
)

const defaultBaseURL = "https://api.twelvedata.com"

var (
	// ErrThrottled 表示每分鐘流量限制；呼叫端應輪替金鑰後重試一次。
	ErrThrottled = errors.New("twelvedata: throttled")
	// ErrQuotaExhausted 表示金鑰當日額度用罄；呼叫端應封鎖金鑰並輪替。
	ErrQuotaExhausted = errors.New("twelvedata: quota exhausted")
)

// Client 存取 TwelveData REST API（有額度限制的次要資料源）。
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 建立 TwelveData client；baseURL 留空使用正式站。
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type errorEnvelope struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type priceResponse struct {
	errorEnvelope
	Price string `json:"price"`
}

// GetPrice 取得即時價格。
func (c *Client) GetPrice(ctx context.Context, symbol, apiKey string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("apikey", apiKey)

	body, err := c.get(ctx, "/price", params)
	if err != nil {
		return 0, err
	}

	var out priceResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("twelvedata: decode price: %w", err)
	}
	if out.Status == "error" {
		return 0, classify(out.Code, out.Message)
	}
	p, err := strconv.ParseFloat(out.Price, 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fmt.Errorf("twelvedata: malformed price %q for %s", out.Price, symbol)
	}
	return p, nil
}

type timeSeriesResponse struct {
	errorEnvelope
	Values []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
	} `json:"values"`
}

// GetTimeSeries 取得 K 線序列。API 回應為新到舊，這裡反轉為舊到新；
// 任一價格欄位無法解析的列整列剔除。from/to 可為 nil。
func (c *Client) GetTimeSeries(ctx context.Context, symbol, interval string, outputsize int, from, to *time.Time, apiKey string) ([]marketdata.Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("outputsize", strconv.Itoa(outputsize))
	params.Set("format", "JSON")
	params.Set("apikey", apiKey)
	if from != nil {
		params.Set("start_date", from.UTC().Format("2006-01-02 15:04:05"))
	}
	if to != nil {
		params.Set("end_date", to.UTC().Format("2006-01-02 15:04:05"))
	}

	body, err := c.get(ctx, "/time_series", params)
	if err != nil {
		return nil, err
	}

	var out timeSeriesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("twelvedata: decode time_series: %w", err)
	}
	if out.Status == "error" {
		return nil, classify(out.Code, out.Message)
	}
	if len(out.Values) == 0 {
		return nil, fmt.Errorf("twelvedata: empty series for %s %s", symbol, interval)
	}

	candles := make([]marketdata.Candle, 0, len(out.Values))
	for i := len(out.Values) - 1; i >= 0; i-- {
		v := out.Values[i]
		ts, err := parseDatetime(v.Datetime)
		if err != nil {
			continue
		}
		open, ok1 := parsePrice(v.Open)
		high, ok2 := parsePrice(v.High)
		low, ok3 := parsePrice(v.Low)
		closeP, ok4 := parsePrice(v.Close)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		candles = append(candles, marketdata.Candle{
			Time:  ts,
			Open:  open,
			High:  high,
			Low:   low,
			Close: closeP,
		})
	}
	return candles, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
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
	if resp.StatusCode == http.StatusTooManyRequests {
		// 429 也可能是日額度用罄，依訊息判斷
		var env errorEnvelope
		if json.Unmarshal(body, &env) == nil && isQuotaMessage(env.Message) {
			return nil, fmt.Errorf("%w: %s", ErrQuotaExhausted, env.Message)
		}
		return nil, fmt.Errorf("%w: http 429", ErrThrottled)
	}
	if resp.StatusCode != http.StatusOK {
		var env errorEnvelope
		if json.Unmarshal(body, &env) == nil && env.Status == "error" {
			return nil, classify(env.Code, env.Message)
		}
		return nil, fmt.Errorf("twelvedata: status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// classify 將 API 錯誤 envelope 對應到內部錯誤型別。
func classify(code int, message string) error {
	switch {
	case isQuotaMessage(message):
		return fmt.Errorf("%w: %s", ErrQuotaExhausted, message)
	case code == http.StatusTooManyRequests || strings.Contains(strings.ToLower(message), "rate limit"):
		return fmt.Errorf("%w: %s", ErrThrottled, message)
	default:
		return fmt.Errorf("twelvedata: api error %d: %s", code, message)
	}
}

func isQuotaMessage(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "out of credits") ||
		strings.Contains(m, "run out") ||
		strings.Contains(m, "quota")
}

func parseDatetime(s string) (time.Time, error) {
	if ts, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}

func parsePrice(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
