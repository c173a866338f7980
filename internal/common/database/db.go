package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverPostgres は本番環境で利用するドライバです
	DriverPostgres = "postgres"
	// DriverSQLite はローカル環境とテストで利用するドライバです
	DriverSQLite = "sqlite3"
)

type DB struct {
	*sqlx.DB
}

type Config struct {
	Driver   string
	Host     string
	Port     int
	UserName string
	Password string
	DBName   string
	SSLMode  string
	// Path はSQLiteのデータベースファイルのパスです
	Path string
}

// NewDB は設定されたドライバでデータベースに接続します
// SQLiteの場合はスキーマも適用します
func NewDB(cfg Config) (*DB, error) {
	switch cfg.Driver {
	case "", DriverPostgres:
		return newPostgresDB(cfg)
	case DriverSQLite:
		return newSQLiteDB(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func newPostgresDB(cfg Config) (*DB, error) {
	// SSLモードの指定がない場合、localhostのDBではSSLを無効化する
	sslModeValue := cfg.SSLMode
	if sslModeValue == "" {
		if cfg.Host == "localhost" || os.Getenv("DB_HOST") == "localhost" {
			sslModeValue = "disable"
		} else {
			sslModeValue = "require"
		}
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.UserName,
		cfg.Password,
		cfg.DBName,
		sslModeValue,
	)

	// X-Ray対応のSQLコンテキストを作成
	db, err := xray.SQLContext(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database with X-Ray: %w", err)
	}

	// コネクションプールの設定
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("DB connected successfully (driver=%s host=%s db=%s)", DriverPostgres, cfg.Host, cfg.DBName)
	return &DB{sqlx.NewDb(db, DriverPostgres)}, nil
}

func newSQLiteDB(cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite3 database path is required")
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", cfg.Path)
	conn, err := sqlx.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLiteの書き込みは1接続ずつなので接続数を制限する
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn}
	if err := db.EnsureSchema(); err != nil {
		conn.Close()
		return nil, err
	}

	log.Printf("DB connected successfully (driver=%s path=%s)", DriverSQLite, cfg.Path)
	return db, nil
}
