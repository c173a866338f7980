package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// BookingMetadata は会話文から抽出された予約の付随情報です
// 抽出処理の結果は信頼できない入力として扱い、すべて省略可能です
type BookingMetadata struct {
	Occasion        *string `json:"occasion,omitempty"`
	Seating         *string `json:"seating,omitempty"`
	Dietary         *string `json:"dietary,omitempty"`
	SpecialRequests *string `json:"special_requests,omitempty"`
	Source          *string `json:"source,omitempty"`
	LanguageGuess   *string `json:"language_guess,omitempty"`
	ParsedPartySize *int    `json:"parsed_party_size,omitempty"`
	ParsedDate      *string `json:"parsed_date,omitempty"`
	ParsedTime      *string `json:"parsed_time,omitempty"`
	CreatedByBot    *bool   `json:"created_by_bot,omitempty"`
}

// Annotation は予約に添付するメタデータのドキュメントです
// 10個のキーは値がなくても常に出力されます（nullになります）
// 同じ枠への再登録時は部分的なマージをせず、ドキュメント全体を置き換えます
type Annotation struct {
	Occasion        *string `json:"occasion"`
	Seating         *string `json:"seating"`
	Dietary         *string `json:"dietary"`
	SpecialRequests *string `json:"special_requests"`
	Source          *string `json:"source"`
	LanguageGuess   *string `json:"language_guess"`
	ParsedPartySize *int    `json:"parsed_party_size"`
	ParsedDate      *string `json:"parsed_date"`
	ParsedTime      *string `json:"parsed_time"`
	CreatedByBot    *bool   `json:"created_by_bot"`
}

// AnnotationKeys はドキュメントに必ず含まれるキーの一覧です
var AnnotationKeys = []string{
	"occasion",
	"seating",
	"dietary",
	"special_requests",
	"source",
	"language_guess",
	"parsed_party_size",
	"parsed_date",
	"parsed_time",
	"created_by_bot",
}

// BuildAnnotation は抽出結果から予約メタデータのドキュメントを組み立てます
// 抽出結果は値を変えずに保持します。空文字や項目間の整合性は検証しません
func BuildAnnotation(meta BookingMetadata) Annotation {
	return Annotation{
		Occasion:        copyPtr(meta.Occasion),
		Seating:         copyPtr(meta.Seating),
		Dietary:         copyPtr(meta.Dietary),
		SpecialRequests: copyPtr(meta.SpecialRequests),
		Source:          copyPtr(meta.Source),
		LanguageGuess:   copyPtr(meta.LanguageGuess),
		ParsedPartySize: copyPtr(meta.ParsedPartySize),
		ParsedDate:      copyPtr(meta.ParsedDate),
		ParsedTime:      copyPtr(meta.ParsedTime),
		CreatedByBot:    copyPtr(meta.CreatedByBot),
	}
}

// Map はドキュメントをキーと値のマップとして返します
// 値のない項目もキーは含まれます
func (a Annotation) Map() map[string]any {
	return map[string]any{
		"occasion":          deref(a.Occasion),
		"seating":           deref(a.Seating),
		"dietary":           deref(a.Dietary),
		"special_requests":  deref(a.SpecialRequests),
		"source":            deref(a.Source),
		"language_guess":    deref(a.LanguageGuess),
		"parsed_party_size": deref(a.ParsedPartySize),
		"parsed_date":       deref(a.ParsedDate),
		"parsed_time":       deref(a.ParsedTime),
		"created_by_bot":    deref(a.CreatedByBot),
	}
}

// Value はドキュメントをJSON文字列としてデータベースに書き込みます
// PostgresではJSONB、SQLiteではTEXTとして保存されます
func (a Annotation) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal annotation: %w", err)
	}
	return string(b), nil
}

// Scan はデータベースから読み込んだJSONをドキュメントに変換します
func (a *Annotation) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*a = Annotation{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unexpected type for annotation: %T", src)
	}

	var decoded Annotation
	if err := json.Unmarshal(b, &decoded); err != nil {
		return fmt.Errorf("invalid annotation document: %w", err)
	}
	*a = decoded
	return nil
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
