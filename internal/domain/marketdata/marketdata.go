package marketdata

import (
	"errors"
	"time"
)

// Quote 市場報價的統一結果型別；下游只看這個形狀，不分辨來源回應格式。
type Quote struct {
	Symbol string
	Price  float64
	Bid    float64
	Ask    float64
	Source string
}

// HasSpread 回報來源是否附帶買賣價。
func (q Quote) HasSpread() bool {
	return q.Bid != 0 && q.Ask != 0
}

// Candle 單根 K 線，時間為 UTC。
type Candle struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

var (
	// ErrNoData 表示所有資料源都無法回答這次查詢。
	ErrNoData = errors.New("no market data available")
	// ErrInvalidTimeframe 表示 timeframe 無法正規化為已知詞彙。
	ErrInvalidTimeframe = errors.New("invalid timeframe")
)
