package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/myflix/internal/common"
	"github.com/ayush/myflix/internal/models"
)

const testUserID = "6f1c2d9e-3b7a-4c55-9a0e-2f4d8b1c7e10"

const (
	qInsertUser     = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,\s*password,\s*email,\s*birthday\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*$`
	qUserByName     = `^SELECT id, username, password, email, birthday FROM users WHERE username = \$1$`
	qUserByID       = `^SELECT id, username, password, email, birthday FROM users WHERE id = \$1$`
	qFavorites      = `^SELECT movie_id FROM favorite_movies WHERE user_id = \$1 ORDER BY added_at$`
	qUpdateUser     = `(?s)^UPDATE\s+users\s+SET.*WHERE\s+id\s*=\s*\$1\s*$`
	qDeleteUser     = `^DELETE FROM users WHERE id = \$1$`
	qAddFavorite    = `(?s)^INSERT\s+INTO\s+favorite_movies.*ON\s+CONFLICT\s+DO\s+NOTHING\s*$`
	qRemoveFavorite = `^DELETE FROM favorite_movies WHERE user_id = \$1 AND movie_id = \$2$`
)

func newPostgresWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgresStore(db, time.Second), mock
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "password", "email", "birthday"}).
		AddRow(testUserID, "alice", "$2a$10$hash", "alice@example.com", "1990-01-02")
}

func expectLoadUser(mock sqlmock.Sqlmock, favs ...string) {
	mock.ExpectQuery(qUserByID).WithArgs(testUserID).WillReturnRows(userRows())
	rows := sqlmock.NewRows([]string{"movie_id"})
	for _, f := range favs {
		rows.AddRow(f)
	}
	mock.ExpectQuery(qFavorites).WithArgs(testUserID).WillReturnRows(rows)
}

func TestPostgres_Migrate(t *testing.T) {
	s, mock := newPostgresWithMock(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS users`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, s.Migrate(context.Background()))
}

func TestPostgres_CreateUser(t *testing.T) {
	s, mock := newPostgresWithMock(t)

	mock.ExpectExec(qInsertUser).
		WithArgs(sqlmock.AnyArg(), "alice", "hash", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := s.CreateUser(context.Background(), &models.User{Username: "alice", Password: "hash"})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "alice", got.Username)
	assert.Empty(t, got.FavoriteMovies)
	assert.NotNil(t, got.FavoriteMovies)
}

func TestPostgres_CreateUser_Duplicate(t *testing.T) {
	s, mock := newPostgresWithMock(t)

	mock.ExpectExec(qInsertUser).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := s.CreateUser(context.Background(), &models.User{Username: "alice", Password: "hash"})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestPostgres_GetUserByUsername(t *testing.T) {
	s, mock := newPostgresWithMock(t)

	mock.ExpectQuery(qUserByName).WithArgs("alice").WillReturnRows(userRows())
	mock.ExpectQuery(qFavorites).WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"movie_id"}).AddRow("m1").AddRow("m2"))

	got, err := s.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, testUserID, got.ID)
	assert.Equal(t, "$2a$10$hash", got.Password)
	assert.Equal(t, []string{"m1", "m2"}, got.FavoriteMovies)
}

func TestPostgres_GetUserByUsername_NotFound(t *testing.T) {
	s, mock := newPostgresWithMock(t)

	mock.ExpectQuery(qUserByName).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := s.GetUserByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPostgres_GetUserByUsername_DBError(t *testing.T) {
	s, mock := newPostgresWithMock(t)

	mock.ExpectQuery(qUserByName).WithArgs("alice").WillReturnError(errors.New("db down"))

	_, err := s.GetUserByUsername(context.Background(), "alice")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrNotFound)
	assert.Contains(t, err.Error(), "db down")
}

func TestPostgres_GetUserByID_InvalidID(t *testing.T) {
	s, _ := newPostgresWithMock(t)

	_, err := s.GetUserByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPostgres_UpdateUser(t *testing.T) {
	s, mock := newPostgresWithMock(t)

	email := "new@example.com"
	mock.ExpectExec(qUpdateUser).
		WithArgs(testUserID, nil, nil, email, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectLoadUser(mock)

	got, err := s.UpdateUser(context.Background(), testUserID, models.UserUpdate{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, testUserID, got.ID)
}

func TestPostgres_UpdateUser_Errors(t *testing.T) {
	name := "bobby"

	t.Run("missing row", func(t *testing.T) {
		s, mock := newPostgresWithMock(t)
		mock.ExpectExec(qUpdateUser).WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := s.UpdateUser(context.Background(), testUserID, models.UserUpdate{Username: &name})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("username taken", func(t *testing.T) {
		s, mock := newPostgresWithMock(t)
		mock.ExpectExec(qUpdateUser).WillReturnError(&pgconn.PgError{Code: "23505"})

		_, err := s.UpdateUser(context.Background(), testUserID, models.UserUpdate{Username: &name})
		assert.ErrorIs(t, err, common.ErrAlreadyExists)
	})
}

func TestPostgres_DeleteUser(t *testing.T) {
	s, mock := newPostgresWithMock(t)

	mock.ExpectExec(qDeleteUser).WithArgs(testUserID).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.DeleteUser(context.Background(), testUserID))

	mock.ExpectExec(qDeleteUser).WithArgs(testUserID).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.DeleteUser(context.Background(), testUserID), common.ErrNotFound)
}

func TestPostgres_AddFavorite(t *testing.T) {
	s, mock := newPostgresWithMock(t)

	mock.ExpectExec(qAddFavorite).WithArgs(testUserID, "m1").WillReturnResult(sqlmock.NewResult(0, 1))
	expectLoadUser(mock, "m1")

	got, err := s.AddFavorite(context.Background(), testUserID, "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, got.FavoriteMovies)
}

func TestPostgres_AddFavorite_UnknownUser(t *testing.T) {
	s, mock := newPostgresWithMock(t)

	mock.ExpectExec(qAddFavorite).WithArgs(testUserID, "m1").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err := s.AddFavorite(context.Background(), testUserID, "m1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPostgres_RemoveFavorite(t *testing.T) {
	s, mock := newPostgresWithMock(t)

	mock.ExpectExec(qRemoveFavorite).WithArgs(testUserID, "m1").WillReturnResult(sqlmock.NewResult(0, 1))
	expectLoadUser(mock)

	got, err := s.RemoveFavorite(context.Background(), testUserID, "m1")
	require.NoError(t, err)
	assert.Empty(t, got.FavoriteMovies)
}
