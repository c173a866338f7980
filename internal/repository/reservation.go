package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/uma-arai/sbcntr-maitred/internal/common/utils"
	"github.com/uma-arai/sbcntr-maitred/internal/model"
)

type ReservationRepository interface {
	Upsert(ctx context.Context, clientID int64, date, clock string, covers int, annotation model.Annotation) (int64, error)
	GetUpcoming(ctx context.Context, clientID int64, now time.Time) (*model.Reservation, error)
	GetUpcomingWithin(ctx context.Context, clientID int64, now time.Time, window time.Duration) (*model.Reservation, error)
	GetByID(ctx context.Context, reservationID int64) (*model.Reservation, error)
}

type ReservationRepositoryImpl struct {
	db     *DB
	window time.Duration
}

// NewReservationRepository は新しいReservationRepositoryを作成します
// window は GetUpcoming で使う期間で、0以下の場合は既定値を使います
func NewReservationRepository(db *DB, window time.Duration) *ReservationRepositoryImpl {
	if window <= 0 {
		window = model.DefaultUpcomingWindow
	}
	return &ReservationRepositoryImpl{db: db, window: window}
}

const reservationColumns = `
			id,
			client_id,
			reservation_at,
			covers,
			annotation,
			created_at,
			updated_at`

// Upsert は予約を登録し、同じ顧客・同じ日時の予約がある場合は人数とメタデータを置き換えます
// 1つのSQL文で実行するため、同じ枠への同時実行はデータベース側で直列化されます
func (r *ReservationRepositoryImpl) Upsert(ctx context.Context, clientID int64, date, clock string, covers int, annotation model.Annotation) (reservationID int64, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "ReservationRepository.Upsert")
	defer func() { utils.CloseSegment(seg, err) }()

	reservationAt, err := model.ParseReservationInstant(date, clock)
	if err != nil {
		return 0, err
	}
	if covers < 1 {
		return 0, fmt.Errorf("%w: covers must be a positive integer, got %d", model.ErrInvalidRequest, covers)
	}

	query := `
		INSERT INTO reservations (
			client_id,
			reservation_at,
			covers,
			annotation
		) VALUES (?, ?, ?, ?)
		ON CONFLICT (client_id, reservation_at) DO UPDATE
		SET covers = EXCLUDED.covers,
			annotation = EXCLUDED.annotation,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id`

	if err := r.db.GetContext(ctx, &reservationID, query, clientID, reservationAt, covers, annotation); err != nil {
		return 0, classifyError("failed to upsert reservation", err)
	}

	utils.AddMetadata(seg, "reservation_id", reservationID)
	return reservationID, nil
}

// GetUpcoming は設定された期間内で最も近い予約を1件取得します
func (r *ReservationRepositoryImpl) GetUpcoming(ctx context.Context, clientID int64, now time.Time) (*model.Reservation, error) {
	return r.GetUpcomingWithin(ctx, clientID, now, r.window)
}

// GetUpcomingWithin は [now, now+window) に含まれる予約のうち最も近いものを1件取得します
// 該当する予約がない場合は nil を返します
func (r *ReservationRepositoryImpl) GetUpcomingWithin(ctx context.Context, clientID int64, now time.Time, window time.Duration) (reservation *model.Reservation, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "ReservationRepository.GetUpcomingWithin")
	defer func() { utils.CloseSegment(seg, err) }()

	from := model.WallClock(now)
	to := from.Add(window)
	utils.AddMetadata(seg, "window", window.String())

	query := `SELECT` + reservationColumns + `
		FROM reservations
		WHERE client_id = ?
		AND reservation_at >= ?
		AND reservation_at < ?
		ORDER BY reservation_at ASC
		LIMIT 1`

	var res model.Reservation
	if err := r.db.GetContext(ctx, &res, query, clientID, from, to); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, classifyError("failed to get upcoming reservation", err)
	}

	return &res, nil
}

// GetByID は指定されたIDの予約を取得します
func (r *ReservationRepositoryImpl) GetByID(ctx context.Context, reservationID int64) (reservation *model.Reservation, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "ReservationRepository.GetByID")
	defer func() { utils.CloseSegment(seg, err) }()

	query := `SELECT` + reservationColumns + `
		FROM reservations
		WHERE id = ?`

	var res model.Reservation
	if err := r.db.GetContext(ctx, &res, query, reservationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: reservation %d", model.ErrNotFound, reservationID)
		}
		return nil, classifyError("failed to get reservation", err)
	}

	return &res, nil
}
