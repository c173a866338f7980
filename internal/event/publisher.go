package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/redis/go-redis/v9"
	"github.com/uma-arai/sbcntr-maitred/internal/common/config"
	"github.com/uma-arai/sbcntr-maitred/internal/common/utils"
	"github.com/uma-arai/sbcntr-maitred/internal/model"
)

// TypeReservationUpserted は予約の登録・更新イベントの種別です
const TypeReservationUpserted = "reservation.upserted"

// Publisher は予約イベントの発行を担当するインターフェースです
type Publisher interface {
	PublishReservationUpserted(ctx context.Context, event model.ReservationEvent) error
	Close() error
}

// Envelope はチャンネルに流すメッセージの形式です
type Envelope struct {
	Type    string                 `json:"type"`
	Payload model.ReservationEvent `json:"payload"`
}

// NewPublisher は設定に応じたPublisherを作成します
// Redisのアドレスが未設定の場合はイベントを発行しません
func NewPublisher(cfg config.EventConfig) Publisher {
	if cfg.RedisAddr == "" {
		log.Printf("REDIS_ADDR is not set. Reservation events are disabled")
		return NopPublisher{}
	}
	return NewRedisPublisher(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, cfg.Channel)
}

// RedisPublisher はRedisのPub/Subにイベントを発行します
// 購読者がいない場合、イベントは破棄されます
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

// NewRedisPublisher は新しいRedisPublisherを作成します
func NewRedisPublisher(opts *redis.Options, channel string) *RedisPublisher {
	return &RedisPublisher{
		rdb:     redis.NewClient(opts),
		channel: channel,
	}
}

// PublishReservationUpserted は予約の登録・更新イベントを発行します
func (p *RedisPublisher) PublishReservationUpserted(ctx context.Context, event model.ReservationEvent) (err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "RedisPublisher.PublishReservationUpserted")
	defer func() { utils.CloseSegment(seg, err) }()

	message, err := json.Marshal(Envelope{Type: TypeReservationUpserted, Payload: event})
	if err != nil {
		return fmt.Errorf("failed to marshal reservation event: %w", err)
	}

	receivers, err := p.rdb.Publish(ctx, p.channel, message).Result()
	if err != nil {
		return fmt.Errorf("failed to publish reservation event: %w", err)
	}

	utils.AddMetadata(seg, "receivers", receivers)
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}

// NopPublisher はイベントを発行しないPublisherです
type NopPublisher struct{}

func (NopPublisher) PublishReservationUpserted(context.Context, model.ReservationEvent) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
