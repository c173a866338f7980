package booking

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/uma-arai/sbcntr-maitred/internal/common/config"
	"github.com/uma-arai/sbcntr-maitred/internal/common/database"
	"github.com/uma-arai/sbcntr-maitred/internal/model"
)

// newSQLiteBookingService はSQLiteを使うBookingServiceを作成します
func newSQLiteBookingService(t *testing.T) *BookingService {
	t.Helper()
	cfg := &config.Config{
		DB: database.Config{
			Driver: database.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "maitred.db"),
		},
		Booking: config.BookingConfig{
			PlaceholderPhone: model.DefaultPlaceholderPhone,
			UpcomingWindow:   48 * time.Hour,
		},
	}

	service, err := NewBookingService(cfg)
	if err != nil {
		t.Fatalf("NewBookingService() error = %v", err)
	}
	t.Cleanup(func() { service.Close() })
	return service
}

// TestBookingService_Integration はSQLiteに対して予約の登録から案内の作成までを確認します
func TestBookingService_Integration(t *testing.T) {
	ctx, seg := xray.BeginSegment(context.Background(), "TestBookingService_Integration")
	defer seg.Close(nil)

	service := newSQLiteBookingService(t)

	bot := true
	first, err := service.SubmitReservation(ctx, SubmitRequest{
		Client:   ClientName("Jane Doe"),
		Date:     "2024-01-02",
		Time:     "09:00",
		Covers:   2,
		Metadata: model.BookingMetadata{CreatedByBot: &bot},
	})
	if err != nil {
		t.Fatalf("SubmitReservation() error = %v", err)
	}

	// 同じ名前・同じ日時での再登録は同じ予約を更新する
	second, err := service.SubmitReservation(ctx, SubmitRequest{
		Client: ClientName("Jane Doe"),
		Date:   "2024-01-02",
		Time:   "09:00",
		Covers: 5,
	})
	if err != nil {
		t.Fatalf("SubmitReservation() error = %v", err)
	}
	if first != second {
		t.Errorf("reservation id changed: %d -> %d", first, second)
	}

	reservation, err := service.GetReservation(ctx, first)
	if err != nil {
		t.Fatalf("GetReservation() error = %v", err)
	}
	if reservation.Covers != 5 {
		t.Errorf("Covers = %d, want 5", reservation.Covers)
	}
	if reservation.Annotation.CreatedByBot != nil {
		t.Errorf("annotation was merged: created_by_bot = %v", *reservation.Annotation.CreatedByBot)
	}

	client, err := service.GetClient(ctx, reservation.ClientID)
	if err != nil {
		t.Fatalf("GetClient() error = %v", err)
	}
	if !client.IsPlaceholder(model.DefaultPlaceholderPhone) {
		t.Errorf("PhoneNumber = %q, want placeholder", client.PhoneNumber)
	}

	// 仮顧客は電話番号では見つからない
	notice, err := service.UpcomingNotice(ctx, model.DefaultPlaceholderPhone, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("UpcomingNotice() error = %v", err)
	}
	if notice != nil {
		t.Errorf("UpcomingNotice() = %+v, want nil", notice)
	}
}

func TestBookingService_IntegrationUpcomingNotice(t *testing.T) {
	ctx, seg := xray.BeginSegment(context.Background(), "TestBookingService_IntegrationUpcomingNotice")
	defer seg.Close(nil)

	service := newSQLiteBookingService(t)

	clientID, err := service.clientRepo.Create(ctx, model.NewClient{
		FirstName:   "Jane",
		LastName:    "Doe",
		PhoneNumber: "+14155550123",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := service.SubmitReservation(ctx, SubmitRequest{
		Client: ClientID(clientID),
		Date:   "2024-01-02",
		Time:   "09:00",
		Covers: 3,
	}); err != nil {
		t.Fatalf("SubmitReservation() error = %v", err)
	}

	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	notice, err := service.UpcomingNotice(ctx, "+14155550123", now)
	if err != nil {
		t.Fatalf("UpcomingNotice() error = %v", err)
	}
	if notice == nil {
		t.Fatal("UpcomingNotice() = nil, want notice")
	}
	if want := "FYI: You have a reservation on 2024-01-02 09:00 for 3 people."; notice.Message != want {
		t.Errorf("Message = %q, want %q", notice.Message, want)
	}

	// 50時間後の予約は期間外
	notice, err = service.UpcomingNotice(ctx, "+14155550123", now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("UpcomingNotice() error = %v", err)
	}
	if notice != nil {
		t.Errorf("UpcomingNotice() = %+v, want nil", notice)
	}
}

func TestBookingService_IntegrationRejections(t *testing.T) {
	ctx, seg := xray.BeginSegment(context.Background(), "TestBookingService_IntegrationRejections")
	defer seg.Close(nil)

	service := newSQLiteBookingService(t)

	tests := []struct {
		name    string
		req     SubmitRequest
		wantErr error
	}{
		{
			name:    "顧客の指定なし",
			req:     SubmitRequest{Date: "2024-01-02", Time: "09:00", Covers: 2},
			wantErr: model.ErrInvalidRequest,
		},
		{
			name:    "存在しない日時",
			req:     SubmitRequest{Client: ClientName("Jane Doe"), Date: "2024-02-30", Time: "25:61", Covers: 2},
			wantErr: model.ErrMalformedInput,
		},
		{
			name:    "存在しない顧客ID",
			req:     SubmitRequest{Client: ClientID(404), Date: "2024-01-02", Time: "09:00", Covers: 2},
			wantErr: model.ErrConstraintViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.SubmitReservation(ctx, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SubmitReservation() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// いずれの場合も顧客・予約は作成されない
	for _, table := range []string{"clients", "reservations"} {
		var n int
		if err := service.db.Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s has %d rows, want 0", table, n)
		}
	}
}
