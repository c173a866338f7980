package model

import (
	"fmt"
	"time"
)

const noticeTimeLayout = "2006-01-02 15:04"

// UpcomingNotice は会話の前置きとして渡す直近の予約の案内です
// 受信メッセージの送信元電話番号ごとに作成されます
type UpcomingNotice struct {
	Phone         string    `json:"phone"`
	ClientID      int64     `json:"client_id"`
	ReservationID int64     `json:"reservation_id"`
	ReservationAt time.Time `json:"reservation_at"`
	Covers        int       `json:"covers"`
	Message       string    `json:"message"`
}

// NewUpcomingNotice は予約から案内を作成します
func NewUpcomingNotice(phone string, r Reservation) UpcomingNotice {
	return UpcomingNotice{
		Phone:         phone,
		ClientID:      r.ClientID,
		ReservationID: r.ID,
		ReservationAt: r.ReservationAt,
		Covers:        r.Covers,
		Message: fmt.Sprintf("FYI: You have a reservation on %s for %d people.",
			r.ReservationAt.Format(noticeTimeLayout), r.Covers),
	}
}
