package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	marketDomain "fx-alert-bot/internal/domain/marketdata"
)

// handlePrice 查詢即時報價，主要供除錯與監看資料源狀態。
func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, "symbol is required")
		return
	}

	quote, err := s.prices.GetPrice(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, marketDomain.ErrNoData) {
			writeError(w, http.StatusNotFound, errCodeNotFound, "no data for symbol")
			return
		}
		writeError(w, http.StatusBadGateway, errCodeUpstream, "price source unavailable")
		return
	}

	body := map[string]interface{}{
		"success": true,
		"symbol":  quote.Symbol,
		"price":   quote.Price,
		"source":  quote.Source,
	}
	if quote.HasSpread() {
		body["bid"] = quote.Bid
		body["ask"] = quote.Ask
	}
	writeJSON(w, http.StatusOK, body)
}

type candleResponse struct {
	Time  string  `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// handleCandles 查詢 K 線序列。
func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	timeframe := r.URL.Query().Get("timeframe")
	if symbol == "" || timeframe == "" {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, "symbol and timeframe are required")
		return
	}
	outputsize := 0
	if raw := r.URL.Query().Get("outputsize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errCodeBadRequest, "outputsize must be a positive integer")
			return
		}
		outputsize = n
	}

	candles, err := s.prices.GetCandles(r.Context(), symbol, timeframe, outputsize, nil, nil)
	if err != nil {
		switch {
		case errors.Is(err, marketDomain.ErrInvalidTimeframe):
			writeError(w, http.StatusBadRequest, errCodeBadRequest, "unknown timeframe")
		case errors.Is(err, marketDomain.ErrNoData):
			writeError(w, http.StatusNotFound, errCodeNotFound, "no data for symbol")
		default:
			writeError(w, http.StatusBadGateway, errCodeUpstream, "candle source unavailable")
		}
		return
	}

	out := make([]candleResponse, 0, len(candles))
	for _, c := range candles {
		out = append(out, candleResponse{
			Time:  c.Time.Format(time.RFC3339),
			Open:  c.Open,
			High:  c.High,
			Low:   c.Low,
			Close: c.Close,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"candles": out,
	})
}
