package marketdata

import (
	"log"
	"sync"
	"time"
)

// KeyPool 管理輪替使用的上游 API 金鑰。所有操作共用同一把鎖；
// 金鑰以固定的循環順序保存。
type KeyPool struct {
	mu           sync.Mutex
	keys         []string
	idx          int
	lastRotation time.Time
	blockedUntil map[string]time.Time
	rotateEvery  time.Duration
	now          func() time.Time
}

// NewKeyPool 建立金鑰池；rotateEvery 為排程輪替的最小間隔（預設 6 小時）。
func NewKeyPool(keys []string, rotateEvery time.Duration) *KeyPool {
	if rotateEvery <= 0 {
		rotateEvery = 6 * time.Hour
	}
	p := &KeyPool{
		keys:         keys,
		blockedUntil: make(map[string]time.Time),
		rotateEvery:  rotateEvery,
		now:          time.Now,
	}
	p.lastRotation = p.now()
	return p
}

// Current 回傳目前使用中的金鑰，無副作用。池為空時回傳空字串。
func (p *KeyPool) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return ""
	}
	return p.keys[p.idx]
}

// Rotate 前進到下一把未在冷卻中的金鑰並回傳。force 為 false 時，
// 距上次輪替未滿 rotateEvery 則不動作。全部金鑰都在冷卻中時退回
// 目前金鑰（寧可讓後續請求以一般上游錯誤收場，也不讓服務整個停擺）。
func (p *KeyPool) Rotate(force bool) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return ""
	}

	now := p.now()
	p.purgeExpired(now)

	if !force && now.Sub(p.lastRotation) < p.rotateEvery {
		return p.keys[p.idx]
	}

	for step := 1; step <= len(p.keys); step++ {
		cand := (p.idx + step) % len(p.keys)
		if _, blocked := p.blockedUntil[p.keys[cand]]; !blocked {
			p.idx = cand
			p.lastRotation = now
			log.Printf("[KeyPool] rotated to key #%d", cand)
			return p.keys[cand]
		}
	}

	log.Printf("[KeyPool] all %d keys in cool-down, keeping key #%d", len(p.keys), p.idx)
	p.lastRotation = now
	return p.keys[p.idx]
}

// Block 將金鑰標記為冷卻至 now+d，期間不會被 Rotate 選中。純狀態變更。
func (p *KeyPool) Block(key string, d time.Duration) {
	if key == "" || d <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blockedUntil[key] = p.now().Add(d)
	log.Printf("[KeyPool] key blocked for %v", d)
}

// purgeExpired 清掉已過期的冷卻標記。呼叫端需持有鎖。
func (p *KeyPool) purgeExpired(now time.Time) {
	for key, until := range p.blockedUntil {
		if !until.After(now) {
			delete(p.blockedUntil, key)
		}
	}
}
