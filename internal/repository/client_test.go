package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uma-arai/sbcntr-maitred/internal/model"
)

func TestClientRepository_Create(t *testing.T) {
	db := newTestDB(t)
	ctx := newTestContext(t)
	repo := NewClientRepository(db, model.DefaultPlaceholderPhone)

	email := "jane@example.com"
	seating := "terrace"
	birthday := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)
	optOut := false

	id, err := repo.Create(ctx, model.NewClient{
		FirstName:        "Jane",
		LastName:         "Doe",
		PhoneNumber:      "+14155550123",
		Email:            &email,
		Birthday:         &birthday,
		PreferredSeating: &seating,
		AllowMarketing:   &optOut,
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	client, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", client.FullName())
	assert.Equal(t, "+14155550123", client.PhoneNumber)
	require.NotNil(t, client.Email)
	assert.Equal(t, email, *client.Email)
	require.NotNil(t, client.PreferredSeating)
	assert.Equal(t, seating, *client.PreferredSeating)
	require.NotNil(t, client.Birthday)
	assert.Equal(t, "1990-05-17", client.Birthday.Format(model.ReservationDateLayout))
	assert.False(t, client.AllowMarketing)
	assert.Nil(t, client.Summary)
}

func TestClientRepository_CreateDefaultsAllowMarketing(t *testing.T) {
	db := newTestDB(t)
	ctx := newTestContext(t)
	repo := NewClientRepository(db, model.DefaultPlaceholderPhone)

	id, err := repo.Create(ctx, model.NewClient{FirstName: "Ana", LastName: "Lopez", PhoneNumber: "+34600000001"})
	require.NoError(t, err)

	client, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, client.AllowMarketing)
}

func TestClientRepository_CreateConstraintViolation(t *testing.T) {
	db := newTestDB(t)
	ctx := newTestContext(t)
	repo := NewClientRepository(db, model.DefaultPlaceholderPhone)

	email := "shared@example.com"
	_, err := repo.Create(ctx, model.NewClient{FirstName: "Jane", LastName: "Doe", PhoneNumber: "+14155550123", Email: &email})
	require.NoError(t, err)

	tests := []struct {
		name   string
		client model.NewClient
	}{
		{
			name:   "電話番号の重複",
			client: model.NewClient{FirstName: "John", LastName: "Roe", PhoneNumber: "+14155550123"},
		},
		{
			name:   "メールアドレスの重複",
			client: model.NewClient{FirstName: "Jane", LastName: "Doe", PhoneNumber: "+14155550999", Email: &email},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Create(ctx, tt.client)
			assert.ErrorIs(t, err, model.ErrConstraintViolation)
		})
	}
	assert.Equal(t, 1, countRows(t, db, "clients"))
}

func TestClientRepository_CreateInvalidRequest(t *testing.T) {
	db := newTestDB(t)
	ctx := newTestContext(t)
	repo := NewClientRepository(db, model.DefaultPlaceholderPhone)

	_, err := repo.Create(ctx, model.NewClient{FirstName: " ", PhoneNumber: "+14155550123"})
	assert.ErrorIs(t, err, model.ErrInvalidRequest)

	_, err = repo.Create(ctx, model.NewClient{FirstName: "Jane"})
	assert.ErrorIs(t, err, model.ErrInvalidRequest)

	assert.Zero(t, countRows(t, db, "clients"))
}

func TestClientRepository_GetByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := newTestContext(t)
	repo := NewClientRepository(db, model.DefaultPlaceholderPhone)

	_, err := repo.GetByID(ctx, 42)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestClientRepository_ResolveByPhone(t *testing.T) {
	db := newTestDB(t)
	ctx := newTestContext(t)
	repo := NewClientRepository(db, model.DefaultPlaceholderPhone)

	id, err := repo.Create(ctx, model.NewClient{FirstName: "Jane", LastName: "Doe", PhoneNumber: "+14155550123"})
	require.NoError(t, err)
	_, err = repo.GetOrCreateByFullName(ctx, "Walk In")
	require.NoError(t, err)

	tests := []struct {
		name      string
		phone     string
		wantID    int64
		wantFound bool
	}{
		{name: "完全一致", phone: "+14155550123", wantID: id, wantFound: true},
		{name: "正規化は行わない", phone: "14155550123", wantFound: false},
		{name: "未登録", phone: "+14155550000", wantFound: false},
		{name: "仮顧客の電話番号", phone: model.DefaultPlaceholderPhone, wantFound: false},
		{name: "空文字", phone: "", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := repo.ResolveByPhone(ctx, tt.phone)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantID, got)
		})
	}
}

func TestClientRepository_ResolveByName(t *testing.T) {
	db := newTestDB(t)
	ctx := newTestContext(t)
	repo := NewClientRepository(db, model.DefaultPlaceholderPhone)

	janeID, err := repo.Create(ctx, model.NewClient{FirstName: "Jane", LastName: "Doe", PhoneNumber: "+14155550123"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, model.NewClient{FirstName: "John", LastName: "Smith", PhoneNumber: "+14155550124"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, model.NewClient{FirstName: "John", LastName: "Smith", PhoneNumber: "+14155550125"})
	require.NoError(t, err)

	t.Run("一意に特定できる", func(t *testing.T) {
		id, found, err := repo.ResolveByName(ctx, "Jane", "Doe")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, janeID, id)
	})

	t.Run("大文字小文字は区別する", func(t *testing.T) {
		_, found, err := repo.ResolveByName(ctx, "jane", "doe")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("同姓同名", func(t *testing.T) {
		_, _, err := repo.ResolveByName(ctx, "John", "Smith")
		assert.ErrorIs(t, err, model.ErrAmbiguousIdentity)
	})

	t.Run("候補は2件まで", func(t *testing.T) {
		ids, err := repo.FindByName(ctx, "John", "Smith")
		require.NoError(t, err)
		assert.Len(t, ids, 2)
		assert.Less(t, ids[0], ids[1])
	})
}

func TestClientRepository_GetOrCreateByFullName(t *testing.T) {
	db := newTestDB(t)
	ctx := newTestContext(t)
	repo := NewClientRepository(db, model.DefaultPlaceholderPhone)

	first, err := repo.GetOrCreateByFullName(ctx, "Jane Doe")
	require.NoError(t, err)
	second, err := repo.GetOrCreateByFullName(ctx, "  Jane   Doe ")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	client, err := repo.GetByID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "Jane", client.FirstName)
	assert.Equal(t, "Doe", client.LastName)
	assert.True(t, client.IsPlaceholder(model.DefaultPlaceholderPhone))

	// 姓のない名前と複数の仮顧客
	madonna, err := repo.GetOrCreateByFullName(ctx, "Madonna")
	require.NoError(t, err)
	assert.NotEqual(t, first, madonna)

	client, err = repo.GetByID(ctx, madonna)
	require.NoError(t, err)
	assert.Equal(t, "", client.LastName)

	assert.Equal(t, 2, countRows(t, db, "clients"))
}

func TestClientRepository_GetOrCreateByFullNameErrors(t *testing.T) {
	db := newTestDB(t)
	ctx := newTestContext(t)
	repo := NewClientRepository(db, model.DefaultPlaceholderPhone)

	_, err := repo.GetOrCreateByFullName(ctx, "   ")
	assert.ErrorIs(t, err, model.ErrInvalidRequest)

	_, err = repo.Create(ctx, model.NewClient{FirstName: "John", LastName: "Smith", PhoneNumber: "+14155550124"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, model.NewClient{FirstName: "John", LastName: "Smith", PhoneNumber: "+14155550125"})
	require.NoError(t, err)

	_, err = repo.GetOrCreateByFullName(ctx, "John Smith")
	assert.ErrorIs(t, err, model.ErrAmbiguousIdentity)
	assert.Equal(t, 2, countRows(t, db, "clients"))
}

func TestClientRepository_CustomPlaceholderPhone(t *testing.T) {
	db := newTestDB(t)
	ctx := newTestContext(t)
	repo := NewClientRepository(db, "n/a")

	first, err := repo.GetOrCreateByFullName(ctx, "Jane Doe")
	require.NoError(t, err)
	second, err := repo.GetOrCreateByFullName(ctx, "John Roe")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	for _, id := range []int64{first, second} {
		client, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "n/a", client.PhoneNumber)
		assert.True(t, client.IsPlaceholder("n/a"))
	}

	_, found, err := repo.ResolveByPhone(ctx, "n/a")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 2, countRows(t, db, "clients"))
}

func TestClientRepository_DefaultPlaceholderIsNotReservedUnderCustomSentinel(t *testing.T) {
	db := newTestDB(t)
	ctx := newTestContext(t)
	repo := NewClientRepository(db, "n/a")

	_, err := repo.Create(ctx, model.NewClient{FirstName: "Ana", PhoneNumber: model.DefaultPlaceholderPhone})
	require.NoError(t, err)

	_, err = repo.Create(ctx, model.NewClient{FirstName: "Ben", PhoneNumber: model.DefaultPlaceholderPhone})
	assert.ErrorIs(t, err, model.ErrConstraintViolation)
}
