package booking

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/uma-arai/sbcntr-maitred/internal/common/config"
	"github.com/uma-arai/sbcntr-maitred/internal/common/database"
	"github.com/uma-arai/sbcntr-maitred/internal/common/utils"
	"github.com/uma-arai/sbcntr-maitred/internal/model"
	"github.com/uma-arai/sbcntr-maitred/internal/repository"
)

// ClientRef は予約する顧客の指定方法です
// 既存の顧客ID（ClientID）か、表示名（ClientName）のどちらかです
type ClientRef interface {
	clientRef()
}

// ClientID は登録済みの顧客IDによる指定です
type ClientID int64

// ClientName は表示名による指定です。該当する顧客がいない場合は仮顧客を作成します
type ClientName string

func (ClientID) clientRef()   {}
func (ClientName) clientRef() {}

// SubmitRequest は予約登録の入力です
type SubmitRequest struct {
	Client   ClientRef
	Date     string
	Time     string
	Covers   int
	Metadata model.BookingMetadata
}

// BookingService は顧客の解決と予約の登録を担当します
type BookingService struct {
	db              *database.DB
	clientRepo      repository.ClientRepository
	reservationRepo repository.ReservationRepository
	cfg             *config.Config
}

// NewBookingService は新しいBookingServiceを作成します
func NewBookingService(cfg *config.Config) (*BookingService, error) {
	db, err := database.NewDB(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	// database.DBをrepository.DBに変換
	repoDb := &repository.DB{DB: db.DB}

	return &BookingService{
		db:              db,
		clientRepo:      repository.NewClientRepository(repoDb, cfg.Booking.PlaceholderPhone),
		reservationRepo: repository.NewReservationRepository(repoDb, cfg.Booking.UpcomingWindow),
		cfg:             cfg,
	}, nil
}

// Close は終了処理を行います
func (s *BookingService) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SubmitReservation は顧客を解決し、予約を登録または更新します
// 1. 顧客の指定と入力値をストレージへのアクセス前に検証
// 2. 表示名の場合は顧客を検索し、いなければ仮顧客を作成
// 3. メタデータを組み立てて予約を登録
// 各処理のエラーは変換せずにそのまま返します
func (s *BookingService) SubmitReservation(ctx context.Context, req SubmitRequest) (reservationID int64, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "BookingService.SubmitReservation")
	defer func() { utils.CloseSegment(seg, err) }()

	if err := validate(req); err != nil {
		return 0, err
	}

	clientID, err := s.resolveClient(ctx, req.Client)
	if err != nil {
		return 0, err
	}
	utils.AddMetadata(seg, "client_id", clientID)

	annotation := model.BuildAnnotation(req.Metadata)

	reservationID, err = s.reservationRepo.Upsert(ctx, clientID, req.Date, req.Time, req.Covers, annotation)
	if err != nil {
		return 0, err
	}

	utils.AddMetadata(seg, "reservation_id", reservationID)
	return reservationID, nil
}

// validate はストレージにアクセスせずに判定できる入力の誤りを検出します
// 仮顧客を作成した後に日時の誤りで失敗しないよう、先に日時も検証します
func validate(req SubmitRequest) error {
	switch ref := req.Client.(type) {
	case ClientID:
		if ref <= 0 {
			return fmt.Errorf("%w: client_id must be a positive integer", model.ErrInvalidRequest)
		}
	case ClientName:
		if strings.TrimSpace(string(ref)) == "" {
			return fmt.Errorf("%w: client_name is empty", model.ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: either client_id or client_name is required", model.ErrInvalidRequest)
	}

	if req.Covers < 1 {
		return fmt.Errorf("%w: covers must be a positive integer, got %d", model.ErrInvalidRequest, req.Covers)
	}

	if _, err := model.ParseReservationInstant(req.Date, req.Time); err != nil {
		return err
	}
	return nil
}

func (s *BookingService) resolveClient(ctx context.Context, ref ClientRef) (int64, error) {
	switch ref := ref.(type) {
	case ClientID:
		return int64(ref), nil
	case ClientName:
		return s.clientRepo.GetOrCreateByFullName(ctx, string(ref))
	default:
		return 0, fmt.Errorf("%w: unknown client reference %T", model.ErrInvalidRequest, ref)
	}
}

// UpcomingNotice は電話番号の顧客に直近の予約があれば、会話に添える案内を返します
// 顧客が見つからない場合や予約がない場合は nil を返します
func (s *BookingService) UpcomingNotice(ctx context.Context, phone string, now time.Time) (notice *model.UpcomingNotice, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "BookingService.UpcomingNotice")
	defer func() { utils.CloseSegment(seg, err) }()

	clientID, found, err := s.clientRepo.ResolveByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	reservation, err := s.reservationRepo.GetUpcoming(ctx, clientID, now)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, nil
	}

	n := model.NewUpcomingNotice(phone, *reservation)
	utils.AddMetadata(seg, "reservation_id", n.ReservationID)
	return &n, nil
}

// UpcomingNotices は複数の電話番号について直近の予約の案内を作成します
// 同じ電話番号への問い合わせは1回にまとめます
func (s *BookingService) UpcomingNotices(ctx context.Context, phones []string, now time.Time) (notices []model.UpcomingNotice, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "BookingService.UpcomingNotices")
	defer func() { utils.CloseSegment(seg, err) }()

	startTime := time.Now()

	// 重複がない電話番号を取得
	uniquePhones := make([]string, 0, len(phones))
	for _, phone := range phones {
		if slices.Contains(uniquePhones, phone) {
			continue
		}
		uniquePhones = append(uniquePhones, phone)
	}
	utils.AddMetadata(seg, "unique_phone_count", len(uniquePhones))

	notices = make([]model.UpcomingNotice, 0)
	for _, phone := range uniquePhones {
		notice, err := s.UpcomingNotice(ctx, phone, now)
		if err != nil {
			return nil, err
		}
		if notice != nil {
			notices = append(notices, *notice)
		}
	}

	duration := time.Since(startTime)
	utils.AddMetadata(seg, "duration", duration.String())
	log.Printf("Upcoming notices built for %d phones (%d notices). Duration: %v", len(uniquePhones), len(notices), duration)
	return notices, nil
}

// GetClient は顧客を取得します
func (s *BookingService) GetClient(ctx context.Context, clientID int64) (*model.Client, error) {
	return s.clientRepo.GetByID(ctx, clientID)
}

// GetReservation は予約を取得します
func (s *BookingService) GetReservation(ctx context.Context, reservationID int64) (*model.Reservation, error) {
	return s.reservationRepo.GetByID(ctx, reservationID)
}
