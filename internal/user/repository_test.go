package user

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/redmonkez12/go-user-api/internal/config"
	"github.com/redmonkez12/go-user-api/internal/database"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, config.DatabaseConfig{URL: "sqlite:///:memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = database.Migrate(ctx, db)
	require.NoError(t, err)
	return db
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(newTestDB(t))
}

func ptr[T any](v T) *T { return &v }

func TestRepository_CreateAssignsDefaults(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	u, err := repo.Create(ctx, "a@x.com", "hash-a")
	require.NoError(t, err)

	assert.NotZero(t, u.ID)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, "hash-a", u.HashedPassword)
	assert.True(t, u.IsActive)
	assert.True(t, u.CreatedAt.After(before))
	assert.Nil(t, u.UpdatedAt)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.Email, got.Email)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.UpdatedAt)
	assert.WithinDuration(t, u.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestRepository_CreateDuplicateEmail(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "dup@x.com", "h1")
	require.NoError(t, err)

	_, err = repo.Create(ctx, "dup@x.com", "h2")
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRepository_EmailIsCaseSensitive(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "Case@x.com", "h")
	require.NoError(t, err)

	_, err = repo.GetByEmail(ctx, "case@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Create(ctx, "case@x.com", "h")
	assert.NoError(t, err)
}

func TestRepository_GetMissing(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 999999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_ListPagination(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, n := range []int{0, 1, 3, 5} {
		t.Run("", func(t *testing.T) {
			repo := newTestRepository(t)
			for i := 0; i < n; i++ {
				_, err := repo.Create(ctx, string(rune('a'+i))+"@x.com", "h")
				require.NoError(t, err)
			}

			first, err := repo.List(ctx, 0, 2)
			require.NoError(t, err)
			second, err := repo.List(ctx, 2, 2)
			require.NoError(t, err)

			ids := map[int64]bool{}
			for _, u := range first {
				ids[u.ID] = true
			}
			for _, u := range second {
				assert.False(t, ids[u.ID], "pages overlap")
				ids[u.ID] = true
			}
			assert.Len(t, ids, min(4, n))

			total, err := repo.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, n, total)
		})
	}

	_, err := repo.Create(ctx, "x@x.com", "h")
	require.NoError(t, err)
	_, err = repo.Create(ctx, "y@x.com", "h")
	require.NoError(t, err)

	all, err := repo.List(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Less(t, all[0].ID, all[1].ID)

	none, err := repo.List(ctx, 10, 100)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepository_UpdateEmptyTouchesOnlyUpdatedAt(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	u, err := repo.Create(ctx, "a@x.com", "h")
	require.NoError(t, err)

	got, err := repo.Update(ctx, u.ID, Changes{})
	require.NoError(t, err)

	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.HashedPassword, got.HashedPassword)
	assert.Equal(t, u.IsActive, got.IsActive)
	assert.WithinDuration(t, u.CreatedAt, got.CreatedAt, time.Millisecond)
	require.NotNil(t, got.UpdatedAt)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestRepository_UpdatePartialFields(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	u, err := repo.Create(ctx, "a@x.com", "h")
	require.NoError(t, err)

	got, err := repo.Update(ctx, u.ID, Changes{IsActive: ptr(false)})
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, "h", got.HashedPassword)
	first := *got.UpdatedAt

	got, err = repo.Update(ctx, u.ID, Changes{Email: ptr("b@x.com"), HashedPassword: ptr("h2")})
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", got.Email)
	assert.Equal(t, "h2", got.HashedPassword)
	assert.False(t, got.IsActive)
	assert.False(t, got.UpdatedAt.Before(first))

	stored, err := repo.GetByEmail(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, stored.ID)
	assert.WithinDuration(t, u.CreatedAt, stored.CreatedAt, time.Millisecond)
}

func TestRepository_UpdateMissingAndDuplicate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Update(ctx, 12345, Changes{IsActive: ptr(false)})
	assert.ErrorIs(t, err, ErrNotFound)

	a, err := repo.Create(ctx, "a@x.com", "h")
	require.NoError(t, err)
	_, err = repo.Create(ctx, "b@x.com", "h")
	require.NoError(t, err)

	_, err = repo.Update(ctx, a.ID, Changes{Email: ptr("b@x.com")})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRepository_Delete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	u, err := repo.Create(ctx, "a@x.com", "h")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, u.ID))

	_, err = repo.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, u.ID), ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 999), ErrNotFound)
}

func TestRepository_UsesInjectedClock(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.now = func() time.Time { return created }
	u, err := repo.Create(ctx, "a@x.com", "h")
	require.NoError(t, err)

	updated := created.Add(time.Hour)
	repo.now = func() time.Time { return updated }
	got, err := repo.Update(ctx, u.ID, Changes{})
	require.NoError(t, err)

	assert.True(t, got.CreatedAt.Equal(created))
	require.NotNil(t, got.UpdatedAt)
	assert.True(t, got.UpdatedAt.Equal(updated))
}

func TestRepository_PostgresUniqueViolation(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	repo := NewRepository(bun.NewDB(sqlDB, pgdialect.New()))

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(&pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "ix_users_email"`})

	_, err = repo.Create(context.Background(), "a@x.com", "h")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_PostgresDeleteRowsAffected(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	repo := NewRepository(bun.NewDB(sqlDB, pgdialect.New()))

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "users"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "users"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.ErrorIs(t, repo.Delete(context.Background(), 7), ErrNotFound)
	assert.NoError(t, repo.Delete(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}
