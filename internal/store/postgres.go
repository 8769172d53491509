package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ayush/myflix/internal/common"
	"github.com/ayush/myflix/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStore handles user accounts and favorites in PostgreSQL. Movie ids
// in favorites refer to the Mongo catalog and are stored as text.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

// OpenPostgres opens a pgx-backed *sql.DB and checks the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}

func NewPostgresStore(db *sql.DB, timeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, timeout: timeout}
}

// Migrate creates the users and favorite_movies tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         UUID PRIMARY KEY,
			username   VARCHAR(50)  UNIQUE NOT NULL,
			password   VARCHAR(255) NOT NULL,
			email      VARCHAR(255) NOT NULL DEFAULT '',
			birthday   VARCHAR(10)  NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ  DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS favorite_movies (
			user_id  UUID        NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			movie_id VARCHAR(64) NOT NULL,
			added_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (user_id, movie_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	created := *u
	created.ID = uuid.NewString()
	created.FavoriteMovies = []string{}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password, email, birthday)
		 VALUES ($1, $2, $3, $4, $5)`,
		created.ID, created.Username, created.Password, created.Email, created.Birthday,
	)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, `WHERE username = $1`, username)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	return s.findUser(ctx, `WHERE id = $1`, id)
}

func (s *PostgresStore) findUser(ctx context.Context, where string, arg string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password, email, birthday FROM users `+where, arg,
	).Scan(&u.ID, &u.Username, &u.Password, &u.Email, &u.Birthday)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	favs, err := s.favorites(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.FavoriteMovies = favs
	return &u, nil
}

func (s *PostgresStore) favorites(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT movie_id FROM favorite_movies WHERE user_id = $1 ORDER BY added_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	favs := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favs = append(favs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return favs, nil
}

// UpdateUser applies the non-nil fields of upd.
func (s *PostgresStore) UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}

	err := func() error {
		ctx, cancel := withTimeout(ctx, s.timeout)
		defer cancel()

		res, err := s.db.ExecContext(ctx,
			`UPDATE users SET
				username = COALESCE($2, username),
				password = COALESCE($3, password),
				email    = COALESCE($4, email),
				birthday = COALESCE($5, birthday)
			 WHERE id = $1`,
			id, upd.Username, upd.Password, upd.Email, upd.Birthday,
		)
		if err != nil {
			if pgCode(err) == pgUniqueViolation {
				return common.ErrAlreadyExists
			}
			return fmt.Errorf("update user: %w", err)
		}
		return expectOneRow(res)
	}()
	if err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, id)
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrNotFound
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOneRow(res)
}

// AddFavorite adds movieID to the user's favorites; adding twice is a no-op.
func (s *PostgresStore) AddFavorite(ctx context.Context, userID, movieID string) (*models.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, common.ErrNotFound
	}

	err := func() error {
		ctx, cancel := withTimeout(ctx, s.timeout)
		defer cancel()

		_, err := s.db.ExecContext(ctx,
			`INSERT INTO favorite_movies (user_id, movie_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			userID, movieID,
		)
		if err != nil {
			if pgCode(err) == pgForeignKeyViolation {
				return common.ErrNotFound
			}
			return fmt.Errorf("add favorite: %w", err)
		}
		return nil
	}()
	if err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, userID)
}

func (s *PostgresStore) RemoveFavorite(ctx context.Context, userID, movieID string) (*models.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, common.ErrNotFound
	}

	err := func() error {
		ctx, cancel := withTimeout(ctx, s.timeout)
		defer cancel()

		_, err := s.db.ExecContext(ctx,
			`DELETE FROM favorite_movies WHERE user_id = $1 AND movie_id = $2`, userID, movieID)
		if err != nil {
			return fmt.Errorf("remove favorite: %w", err)
		}
		return nil
	}()
	if err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, userID)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
