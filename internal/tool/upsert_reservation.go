package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/google/uuid"
	"github.com/uma-arai/sbcntr-maitred/internal/common/utils"
	"github.com/uma-arai/sbcntr-maitred/internal/event"
	"github.com/uma-arai/sbcntr-maitred/internal/model"
	"github.com/uma-arai/sbcntr-maitred/internal/service/booking"
)

// UpsertReservationName はツールとして公開する操作名です
const UpsertReservationName = "upsert_reservation"

// 拒否理由のコード
const (
	CodeInvalidRequest      = "invalid_request"
	CodeMalformedInput      = "malformed_input"
	CodeAmbiguousIdentity   = "ambiguous_identity"
	CodeConstraintViolation = "constraint_violation"
	CodeStorageError        = "storage_error"
)

// UpsertReservationRequest はツール呼び出しの入力です
// client_id と client_name はどちらか一方のみ指定します
type UpsertReservationRequest struct {
	Date       string  `json:"date"`
	Time       string  `json:"time"`
	Covers     int     `json:"covers"`
	ClientID   *int64  `json:"client_id,omitempty"`
	ClientName *string `json:"client_name,omitempty"`
	model.BookingMetadata
}

// Rejection はツール呼び出しを受け付けなかった理由です
type Rejection struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Result はツール呼び出しの結果です
// 成功時は ReservationID、失敗時は Rejection が設定されます
type Result struct {
	InvocationID  string     `json:"invocation_id"`
	ReservationID int64      `json:"reservation_id,omitempty"`
	Rejection     *Rejection `json:"rejection,omitempty"`
}

// OK は予約が登録されたかどうかを返します
func (r Result) OK() bool {
	return r.Rejection == nil
}

// Submitter は予約登録を行うサービスのインターフェースです
type Submitter interface {
	SubmitReservation(ctx context.Context, req booking.SubmitRequest) (int64, error)
}

// UpsertReservationTool は upsert_reservation の呼び出しを処理します
type UpsertReservationTool struct {
	submitter Submitter
	publisher event.Publisher
	now       func() time.Time
}

// NewUpsertReservationTool は新しいUpsertReservationToolを作成します
// publisher が nil の場合はイベントを発行しません
func NewUpsertReservationTool(submitter Submitter, publisher event.Publisher) *UpsertReservationTool {
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &UpsertReservationTool{
		submitter: submitter,
		publisher: publisher,
		now:       time.Now,
	}
}

// DecodeUpsertReservationRequest はJSONの入力をリクエストに変換します
// 未知のフィールドや型の誤りは ErrInvalidRequest として扱います
func DecodeUpsertReservationRequest(payload []byte) (UpsertReservationRequest, error) {
	var req UpsertReservationRequest
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return UpsertReservationRequest{}, fmt.Errorf("%w: %v", model.ErrInvalidRequest, err)
	}
	return req, nil
}

// Validate はリクエストの形を検証します
// client_name は空白のみでも指定ありとして client_id との併用を拒否します
func (r UpsertReservationRequest) Validate() error {
	hasID := r.ClientID != nil
	hasName := r.ClientName != nil

	switch {
	case hasID && hasName:
		return fmt.Errorf("%w: provide either client_id or client_name, not both", model.ErrInvalidRequest)
	case !hasID && (!hasName || strings.TrimSpace(*r.ClientName) == ""):
		return fmt.Errorf("%w: either client_id or client_name is required", model.ErrInvalidRequest)
	case hasID && *r.ClientID <= 0:
		return fmt.Errorf("%w: client_id must be a positive integer", model.ErrInvalidRequest)
	}

	if r.Covers < 1 {
		return fmt.Errorf("%w: covers must be a positive integer", model.ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Date) == "" || strings.TrimSpace(r.Time) == "" {
		return fmt.Errorf("%w: date and time are required", model.ErrInvalidRequest)
	}
	return nil
}

// SubmitRequest はリクエストを予約サービスの入力に変換します
func (r UpsertReservationRequest) SubmitRequest() booking.SubmitRequest {
	req := booking.SubmitRequest{
		Date:     r.Date,
		Time:     r.Time,
		Covers:   r.Covers,
		Metadata: r.BookingMetadata,
	}
	if r.ClientID != nil {
		req.Client = booking.ClientID(*r.ClientID)
	} else if r.ClientName != nil {
		req.Client = booking.ClientName(*r.ClientName)
	}
	return req
}

// Invoke はJSONの入力を受け取り、予約を登録します
func (t *UpsertReservationTool) Invoke(ctx context.Context, payload []byte) Result {
	invocationID := uuid.NewString()

	req, err := DecodeUpsertReservationRequest(payload)
	if err != nil {
		return t.reject(invocationID, err)
	}
	return t.invoke(ctx, invocationID, req)
}

// InvokeRequest はデコード済みのリクエストで予約を登録します
func (t *UpsertReservationTool) InvokeRequest(ctx context.Context, req UpsertReservationRequest) Result {
	return t.invoke(ctx, uuid.NewString(), req)
}

func (t *UpsertReservationTool) invoke(ctx context.Context, invocationID string, req UpsertReservationRequest) Result {
	ctx, seg := xray.BeginSubsegment(ctx, "UpsertReservationTool.Invoke")
	utils.AddMetadata(seg, "invocation_id", invocationID)

	if err := req.Validate(); err != nil {
		utils.CloseSegment(seg, err)
		return t.reject(invocationID, err)
	}

	reservationID, err := t.submitter.SubmitReservation(ctx, req.SubmitRequest())
	if err != nil {
		utils.CloseSegment(seg, err)
		return t.reject(invocationID, err)
	}

	log.Printf("%s accepted (invocation=%s reservation=%d covers=%d)", UpsertReservationName, invocationID, reservationID, req.Covers)

	t.publish(ctx, model.ReservationEvent{
		InvocationID:  invocationID,
		ReservationID: reservationID,
		Date:          req.Date,
		Time:          req.Time,
		Covers:        req.Covers,
		CreatedByBot:  req.CreatedByBot != nil && *req.CreatedByBot,
		OccurredAt:    t.now().UTC(),
	})

	utils.CloseSegment(seg, nil)
	return Result{InvocationID: invocationID, ReservationID: reservationID}
}

// publish はイベントを発行します。発行に失敗しても結果は変わりません
func (t *UpsertReservationTool) publish(ctx context.Context, e model.ReservationEvent) {
	if err := t.publisher.PublishReservationUpserted(ctx, e); err != nil {
		log.Printf("Failed to publish reservation event (invocation=%s reservation=%d): %v", e.InvocationID, e.ReservationID, err)
	}
}

func (t *UpsertReservationTool) reject(invocationID string, err error) Result {
	rejection := NewRejection(err)
	log.Printf("%s rejected (invocation=%s code=%s): %v", UpsertReservationName, invocationID, rejection.Code, err)
	return Result{InvocationID: invocationID, Rejection: &rejection}
}

// NewRejection はエラーを呼び出し元に返す拒否理由に変換します
// ストレージのエラーは内部の詳細を含めずに返します
func NewRejection(err error) Rejection {
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		return Rejection{Code: CodeInvalidRequest, Reason: "The reservation request is invalid: " + detail(err, model.ErrInvalidRequest)}
	case errors.Is(err, model.ErrMalformedInput):
		return Rejection{Code: CodeMalformedInput, Reason: "The reservation date or time could not be understood: " + detail(err, model.ErrMalformedInput)}
	case errors.Is(err, model.ErrAmbiguousIdentity):
		return Rejection{Code: CodeAmbiguousIdentity, Reason: "More than one client has that name. Ask for the client's phone number or use client_id."}
	case errors.Is(err, model.ErrConstraintViolation):
		return Rejection{Code: CodeConstraintViolation, Reason: "The reservation conflicts with existing records. Check that the client exists."}
	default:
		return Rejection{Code: CodeStorageError, Reason: "The reservation could not be saved right now. Please try again later."}
	}
}

// detail はエラーメッセージから分類の接頭辞を取り除きます
func detail(err, kind error) string {
	return strings.TrimPrefix(err.Error(), kind.Error()+": ")
}
