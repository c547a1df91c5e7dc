package marketdata

import (
	"fmt"
	"strings"
)

// Timeframe 標準化後的時間框架：標準 token 與對應的分鐘數。
type Timeframe struct {
	Token   string
	Minutes int
}

// timeframeMinutes 標準 token 與分鐘數的對照表。
var timeframeMinutes = map[string]int{
	"1m":  1,
	"5m":  5,
	"15m": 15,
	"30m": 30,
	"45m": 45,
	"1h":  60,
	"2h":  120,
	"3h":  180,
	"4h":  240,
	"6h":  360,
	"8h":  480,
	"1d":  1440,
	"1w":  10080,
	"1mo": 43200,
}

// timeframeAliases 常見別名（純分鐘數字、min 後綴等）對應標準 token。
var timeframeAliases = map[string]string{
	"1": "1m", "1min": "1m",
	"5": "5m", "5min": "5m",
	"15": "15m", "15min": "15m",
	"30": "30m", "30min": "30m",
	"45": "45m", "45min": "45m",
	"60": "1h", "120": "2h", "180": "3h", "240": "4h", "360": "6h", "480": "8h",
	"1440": "1d", "day": "1d", "1day": "1d",
	"10080": "1w", "week": "1w", "1week": "1w",
	"43200": "1mo", "month": "1mo", "1month": "1mo",
}

// NormalizeTimeframe 將輸入正規化為標準 token；未知詞彙回傳 ErrInvalidTimeframe。
func NormalizeTimeframe(token string) (Timeframe, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	if alias, ok := timeframeAliases[t]; ok {
		t = alias
	}
	if m, ok := timeframeMinutes[t]; ok {
		return Timeframe{Token: t, Minutes: m}, nil
	}
	return Timeframe{}, fmt.Errorf("%w: %q", ErrInvalidTimeframe, token)
}

// TDInterval 轉為 TwelveData time_series 的 interval 詞彙。
func (t Timeframe) TDInterval() string {
	switch {
	case t.Minutes < 60:
		return fmt.Sprintf("%dmin", t.Minutes)
	case t.Minutes == 43200:
		return "1month"
	case t.Minutes == 10080:
		return "1week"
	case t.Minutes == 1440:
		return "1day"
	default:
		return fmt.Sprintf("%dh", t.Minutes/60)
	}
}
