package repository

import (
	"context"
	"database/sql"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/jmoiron/sqlx"
	"github.com/uma-arai/sbcntr-maitred/internal/common/utils"
)

// DB はX-Rayのトレースを付与したsqlx.DBのラッパーです
// クエリは ? プレースホルダで記述し、ドライバに合わせて変換してから実行します
type DB struct {
	*sqlx.DB
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// GetContext wraps sqlx.DB.GetContext with X-Ray tracing
func (db *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) (err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "DB.Get")
	defer func() { utils.CloseSegment(seg, err) }()

	// クエリをメタデータとして追加
	utils.AddMetadata(seg, "query", query)

	return db.DB.GetContext(ctx, dest, db.Rebind(query), args...)
}

// SelectContext wraps sqlx.DB.SelectContext with X-Ray tracing
func (db *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) (err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "DB.Select")
	defer func() { utils.CloseSegment(seg, err) }()

	// クエリをメタデータとして追加
	utils.AddMetadata(seg, "query", query)

	return db.DB.SelectContext(ctx, dest, db.Rebind(query), args...)
}

// ExecContext wraps sqlx.DB.ExecContext with X-Ray tracing
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (result sql.Result, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "DB.Exec")
	defer func() { utils.CloseSegment(seg, err) }()

	// クエリをメタデータとして追加
	utils.AddMetadata(seg, "query", query)

	return db.DB.ExecContext(ctx, db.Rebind(query), args...)
}
