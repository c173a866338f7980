package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/stretchr/testify/require"
	"github.com/uma-arai/sbcntr-maitred/internal/common/database"
)

// newTestDB はテスト用のSQLiteデータベースを作成します
func newTestDB(t *testing.T) *DB {
	t.Helper()
	conn, err := database.NewDB(database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "maitred.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &DB{DB: conn.DB}
}

// newTestContext はX-Rayのセグメントを設定したコンテキストを作成します
func newTestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, seg := xray.BeginSegment(context.Background(), t.Name())
	t.Cleanup(func() { seg.Close(nil) })
	return ctx
}

func countRows(t *testing.T, db *DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}
