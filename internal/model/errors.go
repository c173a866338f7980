package model

import "errors"

// 予約・顧客処理で呼び出し元に返すエラーの分類です
// 各レイヤーは fmt.Errorf("%w: ...") でラップして返すため、判定には errors.Is を使います
var (
	// ErrInvalidRequest は必須の識別子がない等、リクエストの形が不正な場合に返します
	// ストレージへのアクセス前に検出されます
	ErrInvalidRequest = errors.New("invalid request")

	// ErrMalformedInput は日付・時刻が解釈できない場合に返します
	// ストレージへのアクセス前に検出されます
	ErrMalformedInput = errors.New("malformed input")

	// ErrConstraintViolation は一意制約・外部キー制約に違反した場合に返します
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrStorage は接続やトランザクションの失敗を表します
	ErrStorage = errors.New("storage error")

	// ErrAmbiguousIdentity は同姓同名の顧客が複数存在し、名前から一意に特定できない場合に返します
	ErrAmbiguousIdentity = errors.New("ambiguous identity")

	// ErrNotFound は指定したIDのレコードが存在しない場合に返します
	ErrNotFound = errors.New("not found")
)
