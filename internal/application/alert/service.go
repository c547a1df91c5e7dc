package alert

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	alertDomain "fx-alert-bot/internal/domain/alert"
	marketDomain "fx-alert-bot/internal/domain/marketdata"
)

// ErrPriceUnavailable 表示建立警報時取不到現價，無法推斷方向。
var ErrPriceUnavailable = errors.New("current price unavailable")

// Repository 管理警報存取。
type Repository interface {
	Insert(ctx context.Context, a alertDomain.Alert) (alertDomain.Alert, error)
	FindDuplicate(ctx context.Context, userRef, symbol, timeframes string, target float64) (*alertDomain.Alert, error)
	ListPending(ctx context.Context) ([]alertDomain.Alert, error)
	MarkTriggered(ctx context.Context, id string) (*alertDomain.Alert, error)
	ListByUser(ctx context.Context, userRef string) ([]alertDomain.Alert, error)
	Delete(ctx context.Context, id, userRef string) (bool, error)
}

// PriceSource 提供即時報價。
type PriceSource interface {
	GetPrice(ctx context.Context, symbol string) (marketDomain.Quote, error)
}

// CreateInput 建立警報的輸入。
type CreateInput struct {
	UserRef     string
	Symbol      string
	TargetPrice float64
	Timeframes  []string
}

// CreateResult 建立警報的結果。Duplicate 為真時 Alert 是既有的那筆。
type CreateResult struct {
	Alert     alertDomain.Alert
	Duplicate bool
	// 建立當下的市價，供回覆訊息使用
	CurrentPrice float64
}

// Service 警報建立與查詢的 use case。
type Service struct {
	repo   Repository
	prices PriceSource
}

// NewService 建立警報服務。
func NewService(repo Repository, prices PriceSource) *Service {
	return &Service{repo: repo, prices: prices}
}

// Create 建立警報：正規化輸入、重複檢查、以現價推斷方向後落庫。
// 重複檢查本身失敗只記 log、不中斷建立；取不到現價則整個失敗。
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	if in.UserRef == "" {
		return CreateResult{}, fmt.Errorf("user ref is required")
	}
	if in.TargetPrice <= 0 {
		return CreateResult{}, fmt.Errorf("target price must be positive")
	}

	symbol := marketDomain.NormalizeSymbol(in.Symbol)
	timeframes, err := alertDomain.CanonicalTimeframes(in.Timeframes)
	if err != nil {
		return CreateResult{}, err
	}

	dup, err := s.repo.FindDuplicate(ctx, in.UserRef, symbol, timeframes, in.TargetPrice)
	if err != nil {
		log.Printf("[AlertService] duplicate lookup failed for %s %s: %v", in.UserRef, symbol, err)
	}
	if dup != nil {
		return CreateResult{Alert: *dup, Duplicate: true}, nil
	}

	quote, err := s.prices.GetPrice(ctx, symbol)
	if err != nil {
		return CreateResult{}, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}

	direction, triggered := alertDomain.InferDirection(in.TargetPrice, quote.Price)
	a := alertDomain.Alert{
		UserRef:     in.UserRef,
		Symbol:      symbol,
		TargetPrice: in.TargetPrice,
		Direction:   direction,
		Timeframes:  timeframes,
		Triggered:   triggered,
	}
	if triggered {
		now := time.Now().UTC()
		a.TriggeredAt = &now
	}

	stored, err := s.repo.Insert(ctx, a)
	if err != nil {
		return CreateResult{}, fmt.Errorf("insert alert: %w", err)
	}
	log.Printf("[AlertService] alert created for %s %s %s %.5f (triggered=%v)",
		in.UserRef, symbol, direction, in.TargetPrice, triggered)
	return CreateResult{Alert: stored, CurrentPrice: quote.Price}, nil
}

// ListByUser 列出使用者的警報。
func (s *Service) ListByUser(ctx context.Context, userRef string) ([]alertDomain.Alert, error) {
	return s.repo.ListByUser(ctx, userRef)
}

// Delete 刪除使用者自己的警報，回傳是否有刪到。
func (s *Service) Delete(ctx context.Context, id, userRef string) (bool, error) {
	return s.repo.Delete(ctx, id, userRef)
}
