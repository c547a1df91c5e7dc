package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	marketDomain "fx-alert-bot/internal/domain/marketdata"
	"fx-alert-bot/internal/infrastructure/external/twelvedata"
)

const defaultOutputsize = 100

// PrimarySource 為免額度的主要資料源（LiteFinance）。
type PrimarySource interface {
	GetQuote(ctx context.Context, symbol string) (marketDomain.Quote, error)
	GetChart(ctx context.Context, symbol string, periodMinutes int, from, to int64) ([]marketDomain.Candle, error)
}

// SecondarySource 為有額度限制的次要資料源（TwelveData）。
type SecondarySource interface {
	GetPrice(ctx context.Context, symbol, apiKey string) (float64, error)
	GetTimeSeries(ctx context.Context, symbol, interval string, outputsize int, from, to *time.Time, apiKey string) ([]marketDomain.Candle, error)
}

// Service 整合主次資料源與金鑰池：主要源失敗時退到次要源，
// 並處理次要源的流量限制與額度用罄。對外只回傳 domain 層錯誤。
type Service struct {
	primary   PrimarySource
	secondary SecondarySource
	pool      *KeyPool
	blockFor  time.Duration
	now       func() time.Time
}

// NewService 建立整合服務；blockFor 為額度用罄金鑰的冷卻時間（預設 24 小時）。
func NewService(primary PrimarySource, secondary SecondarySource, pool *KeyPool, blockFor time.Duration) *Service {
	if blockFor <= 0 {
		blockFor = 24 * time.Hour
	}
	return &Service{
		primary:   primary,
		secondary: secondary,
		pool:      pool,
		blockFor:  blockFor,
		now:       time.Now,
	}
}

// GetPrice 取得即時報價。主要源失敗時改用次要源；每次呼叫次要源前
// 先做排程輪替，次要源因流量或額度失敗時強制輪替金鑰最多重試一次。
// 全部失敗回傳包裝 ErrNoData 的錯誤。
func (s *Service) GetPrice(ctx context.Context, symbol string) (marketDomain.Quote, error) {
	symbol = marketDomain.NormalizeSymbol(symbol)

	q, err := s.primary.GetQuote(ctx, symbol)
	if err == nil {
		return q, nil
	}
	log.Printf("[MarketData] primary price source failed for %s: %v", symbol, err)

	for attempt := 0; attempt < 2; attempt++ {
		key := s.pool.Rotate(false)
		price, err := s.secondary.GetPrice(ctx, symbol, key)
		if err == nil {
			return marketDomain.Quote{Symbol: symbol, Price: price, Source: "twelvedata"}, nil
		}
		if !s.handleSecondaryErr(symbol, key, err) {
			return marketDomain.Quote{}, fmt.Errorf("%w: price for %s: %v", marketDomain.ErrNoData, symbol, err)
		}
	}
	return marketDomain.Quote{}, fmt.Errorf("%w: price for %s after key rotation", marketDomain.ErrNoData, symbol)
}

// GetCandles 取得 K 線，依時間遞增、最多 outputsize 根（保留最新的）。
// 未知的 timeframe 回傳 ErrInvalidTimeframe；資料源全部失敗回傳 ErrNoData。
func (s *Service) GetCandles(ctx context.Context, symbol, timeframe string, outputsize int, from, to *time.Time) ([]marketDomain.Candle, error) {
	symbol = marketDomain.NormalizeSymbol(symbol)
	tf, err := marketDomain.NormalizeTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	if outputsize <= 0 {
		outputsize = defaultOutputsize
	}

	fromSec, toSec := s.window(tf, outputsize, from, to)
	candles, err := s.primary.GetChart(ctx, symbol, tf.Minutes, fromSec, toSec)
	if err == nil && len(candles) > 0 {
		return tail(candles, outputsize), nil
	}
	if err != nil {
		log.Printf("[MarketData] primary chart source failed for %s %s: %v", symbol, tf.Token, err)
	} else {
		log.Printf("[MarketData] primary chart source returned no rows for %s %s", symbol, tf.Token)
	}

	for attempt := 0; attempt < 2; attempt++ {
		key := s.pool.Rotate(false)
		candles, err := s.secondary.GetTimeSeries(ctx, symbol, tf.TDInterval(), outputsize, from, to, key)
		if err == nil {
			if len(candles) == 0 {
				return nil, fmt.Errorf("%w: candles for %s %s", marketDomain.ErrNoData, symbol, tf.Token)
			}
			return tail(candles, outputsize), nil
		}
		if !s.handleSecondaryErr(symbol, key, err) {
			return nil, fmt.Errorf("%w: candles for %s %s: %v", marketDomain.ErrNoData, symbol, tf.Token, err)
		}
	}
	return nil, fmt.Errorf("%w: candles for %s %s after key rotation", marketDomain.ErrNoData, symbol, tf.Token)
}

// handleSecondaryErr 依次要源的錯誤型別調整金鑰池，回傳是否值得重試。
// 流量限制：輪替後重試。額度用罄：封鎖金鑰、輪替後重試。其餘不重試。
func (s *Service) handleSecondaryErr(symbol, key string, err error) bool {
	switch {
	case errors.Is(err, twelvedata.ErrQuotaExhausted):
		log.Printf("[MarketData] secondary source key out of credits for %s, blocking key and rotating", symbol)
		s.pool.Block(key, s.blockFor)
		s.pool.Rotate(true)
		return true
	case errors.Is(err, twelvedata.ErrThrottled):
		log.Printf("[MarketData] secondary source throttled for %s, rotating key", symbol)
		s.pool.Rotate(true)
		return true
	default:
		log.Printf("[MarketData] secondary source failed for %s: %v", symbol, err)
		return false
	}
}

// window 將 from/to 換算為主要源需要的 Unix 秒區間。
// to 預設為現在，from 預設為往前 outputsize 根 K 線的時間。
func (s *Service) window(tf marketDomain.Timeframe, outputsize int, from, to *time.Time) (int64, int64) {
	end := s.now()
	if to != nil {
		end = *to
	}
	start := end.Add(-time.Duration(outputsize*tf.Minutes) * time.Minute)
	if from != nil {
		start = *from
	}
	return start.Unix(), end.Unix()
}

// tail 保留序列最末端（最新）的 n 筆。
func tail(candles []marketDomain.Candle, n int) []marketDomain.Candle {
	if len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}
