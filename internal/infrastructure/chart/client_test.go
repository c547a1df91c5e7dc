package chart

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fx-alert-bot/internal/domain/marketdata"
)

func TestClient_Render(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		png := []byte{0x89, 0x50, 0x4e, 0x47}
		var gotQuery map[string]string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = map[string]string{
				"symbol":      r.URL.Query().Get("symbol"),
				"timeframe":   r.URL.Query().Get("timeframe"),
				"alert_price": r.URL.Query().Get("alert_price"),
				"outputsize":  r.URL.Query().Get("outputsize"),
			}
			w.Write(png)
		}))
		defer ts.Close()

		c := NewClient(ts.URL, time.Second)
		price := 1.25
		img, err := c.Render(context.Background(), "EUR/USD", "1h", &price, 100)
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if string(img) != string(png) {
			t.Error("image bytes mangled")
		}
		if gotQuery["symbol"] != "EUR/USD" || gotQuery["timeframe"] != "1h" {
			t.Errorf("unexpected query: %v", gotQuery)
		}
		if gotQuery["alert_price"] != "1.25" || gotQuery["outputsize"] != "100" {
			t.Errorf("unexpected query: %v", gotQuery)
		}
	})

	t.Run("not_found_maps_to_no_data", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ts.Close()

		c := NewClient(ts.URL, time.Second)
		if _, err := c.Render(context.Background(), "XXX/YYY", "1h", nil, 0); !errors.Is(err, marketdata.ErrNoData) {
			t.Errorf("expected ErrNoData, got %v", err)
		}
	})

	t.Run("bad_request_maps_to_invalid_timeframe", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer ts.Close()

		c := NewClient(ts.URL, time.Second)
		if _, err := c.Render(context.Background(), "EUR/USD", "7x", nil, 0); !errors.Is(err, marketdata.ErrInvalidTimeframe) {
			t.Errorf("expected ErrInvalidTimeframe, got %v", err)
		}
	})

	t.Run("empty_body_is_no_data", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		c := NewClient(ts.URL, time.Second)
		if _, err := c.Render(context.Background(), "EUR/USD", "1h", nil, 0); !errors.Is(err, marketdata.ErrNoData) {
			t.Errorf("expected ErrNoData for empty body, got %v", err)
		}
	})

	t.Run("unconfigured_url", func(t *testing.T) {
		c := NewClient("", time.Second)
		if _, err := c.Render(context.Background(), "EUR/USD", "1h", nil, 0); err == nil {
			t.Error("missing base url must error")
		}
	})
}
