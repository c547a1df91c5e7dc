package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	alertApp "fx-alert-bot/internal/application/alert"
	alertDomain "fx-alert-bot/internal/domain/alert"
	authDomain "fx-alert-bot/internal/domain/auth"
	marketDomain "fx-alert-bot/internal/domain/marketdata"
	authinfra "fx-alert-bot/internal/infrastructure/auth"
)

// LoginService 驗證帳密並簽發 token。
type LoginService interface {
	Login(ctx context.Context, username, password string) (string, authDomain.User, error)
}

// AlertService 警報的建立、查詢與刪除。
type AlertService interface {
	Create(ctx context.Context, in alertApp.CreateInput) (alertApp.CreateResult, error)
	ListByUser(ctx context.Context, userRef string) ([]alertDomain.Alert, error)
	Delete(ctx context.Context, id, userRef string) (bool, error)
}

// PriceService 查詢即時報價與 K 線。
type PriceService interface {
	GetPrice(ctx context.Context, symbol string) (marketDomain.Quote, error)
	GetCandles(ctx context.Context, symbol, timeframe string, outputsize int, from, to *time.Time) ([]marketDomain.Candle, error)
}

// TokenParser 驗證 access token。
type TokenParser interface {
	ParseAccessToken(token string) (authinfra.Claims, error)
}

// Server 封裝 HTTP 路由與依賴。
type Server struct {
	mux      *http.ServeMux
	loginUC  LoginService
	alerts   AlertService
	prices   PriceService
	tokenSvc TokenParser
	db       *sql.DB
}

// NewServer 建立 API 伺服器。
func NewServer(loginUC LoginService, alerts AlertService, prices PriceService, tokenSvc TokenParser, db *sql.DB) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		loginUC:  loginUC,
		alerts:   alerts,
		prices:   prices,
		tokenSvc: tokenSvc,
		db:       db,
	}
	s.registerRoutes()
	return s
}

// Handler 回傳路由處理器，供 HTTP server 掛載。
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/api/health", s.wrapGet(s.handleHealth))
	s.mux.Handle("/api/auth/login", s.wrapPost(s.handleLogin))
	s.mux.Handle("/api/alerts", s.requireAuth(http.HandlerFunc(s.handleAlerts)))
	s.mux.Handle("/api/alerts/", s.requireAuth(http.HandlerFunc(s.handleAlertByID)))
	s.mux.Handle("/api/price", s.requireAuth(s.wrapGet(s.handlePrice)))
	s.mux.Handle("/api/candles", s.requireAuth(s.wrapGet(s.handleCandles)))
}

func (s *Server) wrapGet(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, errCodeBadRequest, "method not allowed")
			return
		}
		h(w, r)
	})
}

func (s *Server) wrapPost(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, errCodeBadRequest, "method not allowed")
			return
		}
		h(w, r)
	})
}
