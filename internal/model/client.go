package model

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultPlaceholderPhone は電話番号が不明な仮顧客に設定する番号です
const DefaultPlaceholderPhone = "unknown"

// Client は顧客のドメインモデルです
// clientsテーブルのレコードと一致しています
type Client struct {
	ID               int64      `db:"id" json:"id"`
	FirstName        string     `db:"first_name" json:"first_name"`
	LastName         string     `db:"last_name" json:"last_name"`
	PhoneNumber      string     `db:"phone_number" json:"phone_number"`
	Email            *string    `db:"email" json:"email,omitempty"`
	Summary          *string    `db:"summary" json:"summary,omitempty"`
	Birthday         *time.Time `db:"birthday" json:"birthday,omitempty"`
	PreferredSeating *string    `db:"preferred_seating" json:"preferred_seating,omitempty"`
	PreferredServer  *string    `db:"preferred_server" json:"preferred_server,omitempty"`
	AllowMarketing   bool       `db:"allow_marketing" json:"allow_marketing"`
	LastVisit        *time.Time `db:"last_visit" json:"last_visit,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// NewClient は顧客作成時の入力です
// AllowMarketing が nil の場合は true として登録します
type NewClient struct {
	FirstName        string     `db:"first_name"`
	LastName         string     `db:"last_name"`
	PhoneNumber      string     `db:"phone_number"`
	Email            *string    `db:"email"`
	Summary          *string    `db:"summary"`
	Birthday         *time.Time `db:"birthday"`
	PreferredSeating *string    `db:"preferred_seating"`
	PreferredServer  *string    `db:"preferred_server"`
	AllowMarketing   *bool      `db:"-"`
}

// FullName は表示用の氏名を返します
func (c Client) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// IsPlaceholder は電話番号が未登録の仮顧客かどうかを返します
func (c Client) IsPlaceholder(placeholderPhone string) bool {
	return c.PhoneNumber == placeholderPhone
}

// SplitFullName は氏名を最初の空白で名と姓に分割します
// 姓がない場合は空文字を返します
func SplitFullName(fullName string) (first, last string) {
	name := strings.TrimSpace(norm.NFC.String(fullName))
	idx := strings.IndexFunc(name, unicode.IsSpace)
	if idx < 0 {
		return name, ""
	}
	return name[:idx], strings.TrimSpace(name[idx:])
}

// MaskPhone はログ出力用に国番号の先頭と末尾2桁以外を伏せます
// E.164形式でない場合はそのまま返します
func MaskPhone(e164 string) string {
	if len(e164) < 5 || !strings.HasPrefix(e164, "+") {
		return e164
	}
	head := e164[:2]
	tail := e164[len(e164)-2:]
	return head + strings.Repeat("*", len(e164)-len(head)-len(tail)) + tail
}
