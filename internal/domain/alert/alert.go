package alert

import (
	"math"
	"sort"
	"strings"
	"time"

	"fx-alert-bot/internal/domain/marketdata"
)

// Direction 警報方向。
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// PriceEpsilon 價格相等比較使用的絕對容差。
const PriceEpsilon = 1e-8

// Alert 一筆價格警報。建立後除了 Triggered/TriggeredAt 的單次翻轉外不可變。
type Alert struct {
	ID          string
	UserRef     string
	Symbol      string
	TargetPrice float64
	Direction   Direction
	Timeframes  string // 標準化、依週期排序、逗號串接
	Triggered   bool
	TriggeredAt *time.Time
	CreatedAt   time.Time
}

// Met 判斷現價是否滿足觸發條件。
func (a Alert) Met(price float64) bool {
	switch a.Direction {
	case DirectionAbove:
		return price >= a.TargetPrice
	case DirectionBelow:
		return price <= a.TargetPrice
	default:
		return false
	}
}

// TimeframeList 將逗號串接的 timeframes 拆回 token 清單。
func (a Alert) TimeframeList() []string {
	var out []string
	for _, tf := range strings.Split(a.Timeframes, ",") {
		if tf = strings.TrimSpace(tf); tf != "" {
			out = append(out, tf)
		}
	}
	return out
}

// InferDirection 依建立當下的市價決定方向與是否立即觸發：
// 目標價高於市價為 above，低於為 below；兩者在容差內相等時視為已觸發。
func InferDirection(target, current float64) (Direction, bool) {
	if math.Abs(target-current) < PriceEpsilon {
		return DirectionAbove, true
	}
	if target > current {
		return DirectionAbove, false
	}
	return DirectionBelow, false
}

// CanonicalTimeframes 正規化、去重並依週期遞增排序 timeframe 清單，
// 回傳逗號串接的標準形式。任何無法正規化的 token 都會使整體失敗。
func CanonicalTimeframes(tokens []string) (string, error) {
	seen := map[string]bool{}
	var tfs []marketdata.Timeframe
	for _, raw := range tokens {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		tf, err := marketdata.NormalizeTimeframe(raw)
		if err != nil {
			return "", err
		}
		if seen[tf.Token] {
			continue
		}
		seen[tf.Token] = true
		tfs = append(tfs, tf)
	}
	sort.Slice(tfs, func(i, j int) bool { return tfs[i].Minutes < tfs[j].Minutes })
	out := make([]string, 0, len(tfs))
	for _, tf := range tfs {
		out = append(out, tf.Token)
	}
	return strings.Join(out, ","), nil
}
