package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/userflow/userflow/internal/database"
)

func newMockDB(t *testing.T) (*database.Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &database.Postgres{DB: db}, mock
}

var resetTokenColumns = []string{"id", "user_id", "token", "expires_at", "used", "created_at"}

const consumeQuery = `
		UPDATE password_reset_tokens
		SET used = TRUE
		WHERE token = $1 AND used = FALSE AND expires_at > NOW()
		RETURNING id, user_id, token, expires_at, used, created_at
	`

func TestConsumeSucceedsOnUnusedUnexpiredToken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewResetTokenRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(consumeQuery)).
		WithArgs("hash1").
		WillReturnRows(sqlmock.NewRows(resetTokenColumns).
			AddRow("prt_1", "u1", "hash1", now.Add(time.Hour), true, now))

	token, err := repo.Consume(context.Background(), "hash1")
	require.NoError(t, err)
	assert.Equal(t, "u1", token.UserID)
	assert.True(t, token.Used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeReportsAlreadyUsed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewResetTokenRepository(db)

	now := time.Now()
	// Conditional update matches nothing, then the lookup finds a used
	// token. Used wins over expired regardless of the expiry value.
	mock.ExpectQuery(regexp.QuoteMeta(consumeQuery)).
		WithArgs("hash1").
		WillReturnRows(sqlmock.NewRows(resetTokenColumns))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, token, expires_at, used, created_at`)).
		WithArgs("hash1").
		WillReturnRows(sqlmock.NewRows(resetTokenColumns).
			AddRow("prt_1", "u1", "hash1", now.Add(time.Hour), true, now))

	_, err := repo.Consume(context.Background(), "hash1")
	assert.ErrorIs(t, err, ErrTokenUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeReportsExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewResetTokenRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(consumeQuery)).
		WithArgs("hash1").
		WillReturnRows(sqlmock.NewRows(resetTokenColumns))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, token, expires_at, used, created_at`)).
		WithArgs("hash1").
		WillReturnRows(sqlmock.NewRows(resetTokenColumns).
			AddRow("prt_1", "u1", "hash1", now.Add(-time.Hour), false, now.Add(-2*time.Hour)))

	_, err := repo.Consume(context.Background(), "hash1")
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeReportsUnknownToken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewResetTokenRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(consumeQuery)).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(resetTokenColumns))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, token, expires_at, used, created_at`)).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(resetTokenColumns))

	_, err := repo.Consume(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateAllForUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewResetTokenRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE password_reset_tokens SET used = TRUE WHERE user_id = $1 AND used = FALSE`)).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.InvalidateAllForUser(context.Background(), "u1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountRecentByUserID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewResetTokenRepository(db)

	since := time.Now().Add(-time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM password_reset_tokens WHERE user_id = $1 AND created_at > $2`)).
		WithArgs("u1", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountRecentByUserID(context.Background(), "u1", since)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
