package postgres

import (
	"context"
	"database/sql"
	"time"

	alertDomain "fx-alert-bot/internal/domain/alert"
)

// AlertRepo 實作 alert.Repository，使用 Postgres 儲存。
type AlertRepo struct {
	db *sql.DB
}

// NewAlertRepo 建立新實例。
func NewAlertRepo(db *sql.DB) *AlertRepo {
	return &AlertRepo{db: db}
}

const alertColumns = `id, user_ref, symbol, target_price, direction, timeframes, triggered, triggered_at, created_at`

// Insert 建立警報並回傳完整資料列（含 DB 產生的 id 與 created_at）。
func (r *AlertRepo) Insert(ctx context.Context, a alertDomain.Alert) (alertDomain.Alert, error) {
	const q = `
INSERT INTO alerts (user_ref, symbol, target_price, direction, timeframes, triggered, triggered_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + alertColumns + `;
`
	row := r.db.QueryRowContext(ctx, q,
		a.UserRef, a.Symbol, a.TargetPrice, string(a.Direction), a.Timeframes, a.Triggered, a.TriggeredAt,
	)
	return scanAlert(row)
}

// FindDuplicate 查詢同使用者、同條件且尚未觸發的警報；目標價以容差比對。
// 找不到時回傳 (nil, nil)。
func (r *AlertRepo) FindDuplicate(ctx context.Context, userRef, symbol, timeframes string, target float64) (*alertDomain.Alert, error) {
	const q = `
SELECT ` + alertColumns + `
FROM alerts
WHERE user_ref=$1 AND symbol=$2 AND timeframes=$3
  AND ABS(target_price - $4) < $5
  AND triggered=FALSE
LIMIT 1;
`
	a, err := scanAlert(r.db.QueryRowContext(ctx, q, userRef, symbol, timeframes, target, alertDomain.PriceEpsilon))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListPending 列出所有尚未觸發的警報。
func (r *AlertRepo) ListPending(ctx context.Context) ([]alertDomain.Alert, error) {
	const q = `
SELECT ` + alertColumns + `
FROM alerts
WHERE triggered=FALSE
ORDER BY created_at;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []alertDomain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkTriggered 將警報標記為已觸發。條件式更新確保同一筆警報只會被
// 標記一次：沒有更新到任何列時回頭查詢現況，已觸發回傳現有列（no-op），
// 已刪除回傳 (nil, nil)。
func (r *AlertRepo) MarkTriggered(ctx context.Context, id string) (*alertDomain.Alert, error) {
	const q = `
UPDATE alerts
SET triggered=TRUE, triggered_at=$2
WHERE id=$1 AND triggered=FALSE
RETURNING ` + alertColumns + `;
`
	a, err := scanAlert(r.db.QueryRowContext(ctx, q, id, time.Now().UTC()))
	if err == nil {
		return &a, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	const reread = `SELECT ` + alertColumns + ` FROM alerts WHERE id=$1;`
	a, err = scanAlert(r.db.QueryRowContext(ctx, reread, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByUser 列出使用者的全部警報，新的在前。
func (r *AlertRepo) ListByUser(ctx context.Context, userRef string) ([]alertDomain.Alert, error) {
	const q = `
SELECT ` + alertColumns + `
FROM alerts
WHERE user_ref=$1
ORDER BY created_at DESC
LIMIT 200;
`
	rows, err := r.db.QueryContext(ctx, q, userRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []alertDomain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete 刪除使用者自己的警報，回傳是否有刪到。
func (r *AlertRepo) Delete(ctx context.Context, id, userRef string) (bool, error) {
	const q = `DELETE FROM alerts WHERE id=$1 AND user_ref=$2;`
	res, err := r.db.ExecContext(ctx, q, id, userRef)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlert(row rowScanner) (alertDomain.Alert, error) {
	var a alertDomain.Alert
	var direction string
	var triggeredAt sql.NullTime
	if err := row.Scan(
		&a.ID, &a.UserRef, &a.Symbol, &a.TargetPrice, &direction,
		&a.Timeframes, &a.Triggered, &triggeredAt, &a.CreatedAt,
	); err != nil {
		return alertDomain.Alert{}, err
	}
	a.Direction = alertDomain.Direction(direction)
	if triggeredAt.Valid {
		a.TriggeredAt = &triggeredAt.Time
	}
	return a, nil
}
