package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/jmoiron/sqlx"
	"github.com/uma-arai/sbcntr-maitred/internal/common/utils"
	"github.com/uma-arai/sbcntr-maitred/internal/model"
)

// ClientRepository は顧客情報の永続化を担当するインターフェースです
type ClientRepository interface {
	GetByID(ctx context.Context, clientID int64) (*model.Client, error)
	ResolveByPhone(ctx context.Context, phone string) (int64, bool, error)
	FindByName(ctx context.Context, firstName, lastName string) ([]int64, error)
	ResolveByName(ctx context.Context, firstName, lastName string) (int64, bool, error)
	GetOrCreateByFullName(ctx context.Context, fullName string) (int64, error)
	Create(ctx context.Context, client model.NewClient) (int64, error)
}

// ClientRepositoryImpl はClientRepositoryの実装です
type ClientRepositoryImpl struct {
	db               *DB
	placeholderPhone string
}

// NewClientRepository は新しいClientRepositoryを作成します
// placeholderPhone は名前のみで作成する仮顧客に設定する電話番号です
func NewClientRepository(db *DB, placeholderPhone string) *ClientRepositoryImpl {
	if placeholderPhone == "" {
		placeholderPhone = model.DefaultPlaceholderPhone
	}
	return &ClientRepositoryImpl{
		db:               db,
		placeholderPhone: placeholderPhone,
	}
}

const clientColumns = `
			id,
			first_name,
			last_name,
			phone_number,
			email,
			summary,
			birthday,
			preferred_seating,
			preferred_server,
			allow_marketing,
			last_visit,
			created_at,
			updated_at`

// GetByID は指定されたIDの顧客を取得します
func (r *ClientRepositoryImpl) GetByID(ctx context.Context, clientID int64) (client *model.Client, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "ClientRepository.GetByID")
	defer func() { utils.CloseSegment(seg, err) }()

	query := `SELECT` + clientColumns + `
		FROM clients
		WHERE id = ?`

	var c model.Client
	if err := r.db.GetContext(ctx, &c, query, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: client %d", model.ErrNotFound, clientID)
		}
		return nil, classifyError("failed to get client", err)
	}

	return &c, nil
}

// ResolveByPhone は電話番号の完全一致で顧客を検索します
// 電話番号の正規化は呼び出し元の責務です。仮顧客の電話番号では検索しません
func (r *ClientRepositoryImpl) ResolveByPhone(ctx context.Context, phone string) (clientID int64, found bool, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "ClientRepository.ResolveByPhone")
	defer func() { utils.CloseSegment(seg, err) }()

	if phone == "" || phone == r.placeholderPhone {
		return 0, false, nil
	}

	query := `
		SELECT id
		FROM clients
		WHERE phone_number = ?
		ORDER BY id
		LIMIT 1`

	if err := r.db.GetContext(ctx, &clientID, query, phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, classifyError("failed to resolve client by phone", err)
	}

	return clientID, true, nil
}

// FindByName は氏名が完全一致する顧客のIDを取得します
// 同姓同名の判定に必要な2件までしか取得しません
func (r *ClientRepositoryImpl) FindByName(ctx context.Context, firstName, lastName string) (ids []int64, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "ClientRepository.FindByName")
	defer func() { utils.CloseSegment(seg, err) }()

	query := `
		SELECT id
		FROM clients
		WHERE first_name = ?
		AND last_name = ?
		ORDER BY id
		LIMIT 2`

	if err := r.db.SelectContext(ctx, &ids, query, firstName, lastName); err != nil {
		return nil, classifyError("failed to find clients by name", err)
	}

	utils.AddMetadata(seg, "candidate_count", len(ids))
	return ids, nil
}

// ResolveByName は氏名で顧客を1件に特定します
// 同姓同名の顧客が複数いる場合は ErrAmbiguousIdentity を返します
func (r *ClientRepositoryImpl) ResolveByName(ctx context.Context, firstName, lastName string) (int64, bool, error) {
	ids, err := r.FindByName(ctx, firstName, lastName)
	if err != nil {
		return 0, false, err
	}

	switch len(ids) {
	case 0:
		return 0, false, nil
	case 1:
		return ids[0], true, nil
	default:
		return 0, false, fmt.Errorf("%w: more than one client named %q", model.ErrAmbiguousIdentity, strings.TrimSpace(firstName+" "+lastName))
	}
}

// GetOrCreateByFullName は氏名で顧客を検索し、存在しない場合は仮顧客を作成します
// 仮顧客の作成と予約の登録は別トランザクションのため、予約の登録に失敗すると仮顧客だけが残ります
func (r *ClientRepositoryImpl) GetOrCreateByFullName(ctx context.Context, fullName string) (clientID int64, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "ClientRepository.GetOrCreateByFullName")
	defer func() { utils.CloseSegment(seg, err) }()

	firstName, lastName := model.SplitFullName(fullName)
	if firstName == "" {
		return 0, fmt.Errorf("%w: client name is empty", model.ErrInvalidRequest)
	}

	clientID, found, err := r.ResolveByName(ctx, firstName, lastName)
	if err != nil {
		return 0, err
	}
	if found {
		utils.AddMetadata(seg, "created", false)
		return clientID, nil
	}

	clientID, err = r.Create(ctx, model.NewClient{
		FirstName:   firstName,
		LastName:    lastName,
		PhoneNumber: r.placeholderPhone,
	})
	if err != nil {
		return 0, err
	}

	utils.AddMetadata(seg, "created", true)
	return clientID, nil
}

// clientInsert は顧客作成時にバインドする値です
type clientInsert struct {
	model.NewClient
	AllowMarketing bool `db:"allow_marketing"`
	IsPlaceholder  bool `db:"is_placeholder"`
}

// Create は顧客を作成し、採番されたIDを返します
// 電話番号やメールアドレスが既存の顧客と重複する場合は ErrConstraintViolation を返します
// 仮顧客の電話番号で作成した顧客は仮顧客として登録され、電話番号の重複チェックから外れます
func (r *ClientRepositoryImpl) Create(ctx context.Context, client model.NewClient) (clientID int64, err error) {
	ctx, seg := xray.BeginSubsegment(ctx, "ClientRepository.Create")
	defer func() { utils.CloseSegment(seg, err) }()

	if strings.TrimSpace(client.FirstName) == "" {
		return 0, fmt.Errorf("%w: first name is required", model.ErrInvalidRequest)
	}
	if strings.TrimSpace(client.PhoneNumber) == "" {
		return 0, fmt.Errorf("%w: phone number is required", model.ErrInvalidRequest)
	}

	row := clientInsert{
		NewClient:      client,
		AllowMarketing: true,
		IsPlaceholder:  client.PhoneNumber == r.placeholderPhone,
	}
	if client.AllowMarketing != nil {
		row.AllowMarketing = *client.AllowMarketing
	}

	query, args, err := sqlx.Named(`
		INSERT INTO clients (
			first_name,
			last_name,
			phone_number,
			email,
			summary,
			birthday,
			preferred_seating,
			preferred_server,
			allow_marketing,
			is_placeholder
		) VALUES (
			:first_name,
			:last_name,
			:phone_number,
			:email,
			:summary,
			:birthday,
			:preferred_seating,
			:preferred_server,
			:allow_marketing,
			:is_placeholder
		)
		RETURNING id`, row)
	if err != nil {
		return 0, fmt.Errorf("failed to bind client: %w", err)
	}

	if err := r.db.GetContext(ctx, &clientID, query, args...); err != nil {
		return 0, classifyError("failed to create client", err)
	}

	return clientID, nil
}
