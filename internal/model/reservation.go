package model

import (
	"fmt"
	"time"
)

const (
	// ReservationDateLayout は予約日の入力形式です（ISO 8601のカレンダー日付）
	ReservationDateLayout = "2006-01-02"
	// ReservationTimeLayout は予約時刻の入力形式です（24時間表記）
	ReservationTimeLayout = "15:04"
)

// DefaultUpcomingWindow は直近の予約を探す期間の既定値です
const DefaultUpcomingWindow = 48 * time.Hour

// Reservation は予約のドメインモデルです
// (client_id, reservation_at) の組み合わせで一意になります
type Reservation struct {
	ID            int64      `db:"id" json:"id"`
	ClientID      int64      `db:"client_id" json:"client_id"`
	ReservationAt time.Time  `db:"reservation_at" json:"reservation_at"`
	Covers        int        `db:"covers" json:"covers"`
	Annotation    Annotation `db:"annotation" json:"annotation"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// ReservationEvent は予約の登録・更新が完了した時に発行されるイベントです
type ReservationEvent struct {
	InvocationID  string    `json:"invocation_id"`
	ReservationID int64     `json:"reservation_id"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Covers        int       `json:"covers"`
	CreatedByBot  bool      `json:"created_by_bot"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ParseReservationInstant は日付と時刻を結合して予約日時を返します
// タイムゾーンの変換は行わず、入力された壁時計の時刻をそのまま保持します
func ParseReservationInstant(date, clock string) (time.Time, error) {
	d, err := time.ParseInLocation(ReservationDateLayout, date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is not a calendar date (YYYY-MM-DD)", ErrMalformedInput, date)
	}

	t, err := time.ParseInLocation(ReservationTimeLayout, clock, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time %q is not a 24-hour clock time (HH:MM)", ErrMalformedInput, clock)
	}

	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

// WallClock は時刻のタイムゾーン情報を落とし、壁時計の値をUTCとして扱います
// 予約日時はタイムゾーンなしで保存されるため、比較する時刻はこの形式に揃えます
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
