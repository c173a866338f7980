package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/uma-arai/sbcntr-maitred/internal/model"
)

// Postgresの制約違反のエラーコード
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// classifyError はドライバのエラーを model のエラー分類に変換します
// 制約違反は ErrConstraintViolation、それ以外は ErrStorage としてラップします
func classifyError(action string, err error) error {
	if isConstraintViolation(err) {
		return fmt.Errorf("%w: %s: %w", model.ErrConstraintViolation, action, err)
	}
	return fmt.Errorf("%w: %s: %w", model.ErrStorage, action, err)
}

func isConstraintViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation, pqForeignKeyViolation, pqCheckViolation:
			return true
		}
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
