package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

type (
	SQLite struct {
		db *sqlx.DB
	}

	credentialRow struct {
		ID             string         `db:"user_id"`
		Email          string         `db:"email"`
		Username       string         `db:"username"`
		Salt           string         `db:"salt"`
		PasswordDigest string         `db:"password_digest"`
		SessionToken   sql.NullString `db:"session_token"`
		Revision       int64          `db:"revision"`
	}

	identityRow struct {
		ID       string `db:"user_id"`
		Email    string `db:"email"`
		Username string `db:"username"`
	}
)

var (
	credentialColumns = []string{"user_id", "email", "username", "salt", "password_digest", "session_token", "revision"}
	identityColumns   = []string{"user_id", "email", "username"}
)

// OpenSQLite opens (creating if needed) the sqlite database at file and
// makes sure the users table exists.
func OpenSQLite(ctx context.Context, file string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return nil, fmt.Errorf("unable to create directory to store %v, cause %w", file, err)
	}
	connstr := fmt.Sprintf("file:%v?_journal=wal&_busy_timeout=5000&mode=rwc", file)
	db, err := sqlx.Open("sqlite3", connstr)
	if err != nil {
		return nil, fmt.Errorf("unable to open %v, cause %w", file, err)
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping %v, cause %w", file, err)
	}
	s := NewSQLite(db)
	if err = s.init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to init %v, cause %w", file, err)
	}
	return s, nil
}

// NewSQLite wraps an already open database. The schema is not created.
func NewSQLite(db *sqlx.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) FindByEmail(ctx context.Context, email string) (*UserCredential, error) {
	return s.findOne(ctx, "email", sq.Eq{"email_hash64": hash64(email), "email": email})
}

func (s *SQLite) FindBySessionToken(ctx context.Context, token string) (*UserCredential, error) {
	if token == "" {
		return nil, NotFound{Lookup: "session token"}
	}
	return s.findOne(ctx, "session token", sq.Eq{"session_token_hash64": hash64(token), "session_token": token})
}

func (s *SQLite) FindByID(ctx context.Context, id string) (*UserCredential, error) {
	return s.findOne(ctx, "id", sq.Eq{"user_id": id})
}

func (s *SQLite) Revision(ctx context.Context, id string) (int64, error) {
	query, args, err := sq.Select("revision").From("users").Where(sq.Eq{"user_id": id}).ToSql()
	if err != nil {
		return 0, err
	}
	var rev int64
	err = s.db.GetContext(ctx, &rev, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, NotFound{Lookup: "id"}
	} else if err != nil {
		return 0, fmt.Errorf("unable to load revision of %v, cause %w", id, err)
	}
	return rev, nil
}

func (s *SQLite) Create(ctx context.Context, email, username, salt, passwordDigest string) (*UserCredential, error) {
	uc := &UserCredential{
		Identity: Identity{
			ID:       uuid.NewString(),
			Email:    email,
			Username: username,
		},
		Salt:           salt,
		PasswordDigest: passwordDigest,
	}
	query, args, err := sq.Insert("users").
		Columns("user_id", "email", "email_hash64", "username", "salt", "password_digest").
		Values(uc.ID, uc.Email, hash64(uc.Email), uc.Username, uc.Salt, uc.PasswordDigest).
		ToSql()
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	if isUniqueViolation(err, "users.email") {
		return nil, DuplicateEmail{Email: email}
	} else if err != nil {
		return nil, fmt.Errorf("unable to create user, cause %w", err)
	}
	return uc, nil
}

// Save only succeeds when uc.Revision matches the stored revision, on success
// uc.Revision is advanced.
func (s *SQLite) Save(ctx context.Context, uc *UserCredential) error {
	token, tokenHash := nullableToken(uc.SessionToken)
	query, args, err := sq.Update("users").
		Set("username", uc.Username).
		Set("session_token", token).
		Set("session_token_hash64", tokenHash).
		Set("revision", uc.Revision+1).
		Where(sq.Eq{"user_id": uc.ID, "revision": uc.Revision}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("unable to save user %v, cause %w", uc.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to save user %v, cause %w", uc.ID, err)
	}
	if n == 0 {
		if _, err = s.FindByID(ctx, uc.ID); err != nil {
			return err
		}
		return StaleRecord{ID: uc.ID}
	}
	uc.Revision++
	return nil
}

func (s *SQLite) DeleteByID(ctx context.Context, id string) (*UserCredential, error) {
	query, args, err := sq.Delete("users").
		Where(sq.Eq{"user_id": id}).
		Suffix("returning " + strings.Join(credentialColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	return s.scanOne(ctx, "id", query, args)
}

func (s *SQLite) List(ctx context.Context) ([]Identity, error) {
	query, args, err := sq.Select(identityColumns...).From("users").OrderBy("email asc").ToSql()
	if err != nil {
		return nil, err
	}
	var rows []identityRow
	if err = s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("unable to list users, cause %w", err)
	}
	out := make([]Identity, 0, len(rows))
	for _, r := range rows {
		out = append(out, Identity{ID: r.ID, Email: r.Email, Username: r.Username})
	}
	return out, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) findOne(ctx context.Context, lookup string, where sq.Eq) (*UserCredential, error) {
	query, args, err := sq.Select(credentialColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	return s.scanOne(ctx, lookup, query, args)
}

func (s *SQLite) scanOne(ctx context.Context, lookup string, query string, args []interface{}) (*UserCredential, error) {
	var row credentialRow
	err := s.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound{Lookup: lookup}
	} else if err != nil {
		return nil, fmt.Errorf("unable to load user by %v, cause %w", lookup, err)
	}
	return row.credential(), nil
}

func (s *SQLite) init(ctx context.Context) error {
	for _, cmd := range []string{
		`create table if not exists users(
			user_id text not null primary key,
			email text not null unique,
			email_hash64 integer not null,
			username text not null,
			salt text not null unique,
			password_digest text not null,
			session_token text unique,
			session_token_hash64 integer,
			revision integer not null default 0
		)`,
		`create index if not exists idx_users_email_hash64
			on users(email_hash64)`,
		`create index if not exists idx_users_session_token_hash64
			on users(session_token_hash64)`,
	} {
		if _, err := s.db.ExecContext(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (r credentialRow) credential() *UserCredential {
	return &UserCredential{
		Identity: Identity{
			ID:       r.ID,
			Email:    r.Email,
			Username: r.Username,
		},
		Salt:           r.Salt,
		PasswordDigest: r.PasswordDigest,
		SessionToken:   r.SessionToken.String,
		Revision:       r.Revision,
	}
}

func hash64(val string) int64 {
	return int64(xxhash.Sum64String(val))
}

func nullableToken(token string) (interface{}, interface{}) {
	if token == "" {
		return nil, nil
	}
	return token, hash64(token)
}

func isUniqueViolation(err error, column string) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique &&
		strings.Contains(sqliteErr.Error(), column)
}
