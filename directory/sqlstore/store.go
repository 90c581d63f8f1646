// Package sqlstore implements directory.Directory over database/sql with
// Postgres (pgx) and SQLite (modernc) drivers and embedded goose
// migrations.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/directory"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Dialect selects the SQL driver and placeholder style.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

func (d Dialect) driverName() string {
	if d == DialectSQLite {
		return "sqlite"
	}
	return "pgx"
}

func (d Dialect) gooseDialect() string {
	if d == DialectSQLite {
		return "sqlite3"
	}
	return "pgx"
}

func (d Dialect) migrationDir() string {
	if d == DialectSQLite {
		return "sqlite"
	}
	return "postgres"
}

// ParseDialect maps a configuration string to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", s)
	}
}

// DBTX is the subset of *sql.DB used by Store.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a SQL-backed user directory. Timestamps are stored as UTC unix
// milliseconds so both dialects share one schema shape.
type Store struct {
	db      DBTX
	dialect Dialect
	now     func() time.Time
}

var _ directory.Directory = (*Store)(nil)

// New wraps an open database handle.
func New(db DBTX, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, now: time.Now}
}

// Open opens dsn with the driver for dialect, pings it and applies
// migrations. The caller owns the returned *sql.DB.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, *sql.DB, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := Migrate(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migration error: %w", err)
	}
	return New(db, dialect), db, nil
}

const userColumns = `id, email, username, phone, full_name, password_hash, account_status, is_verified, role, token_version, last_login, created_at, updated_at`

const selectUser = `SELECT ` + userColumns + ` FROM users`

func (s *Store) FindByEmail(ctx context.Context, email string) (directory.User, error) {
	return s.queryUser(ctx, selectUser+` WHERE email = $1`, strings.ToLower(email))
}

func (s *Store) FindByUsername(ctx context.Context, username string) (directory.User, error) {
	return s.queryUser(ctx, selectUser+` WHERE username = $1`, username)
}

func (s *Store) FindByPhone(ctx context.Context, phone string) (directory.User, error) {
	if phone == "" {
		return directory.User{}, directory.ErrNotFound
	}
	return s.queryUser(ctx, selectUser+` WHERE phone = $1`, phone)
}

func (s *Store) FindByID(ctx context.Context, id string) (directory.User, error) {
	return s.queryUser(ctx, selectUser+` WHERE id = $1`, id)
}

func (s *Store) FindAny(ctx context.Context, l directory.Lookup) (directory.User, error) {
	if l.Empty() {
		return directory.User{}, directory.ErrNotFound
	}
	return s.queryUser(ctx,
		selectUser+` WHERE email = $1 OR username = $2 OR phone = $3 LIMIT 1`,
		nullString(strings.ToLower(l.Email)), nullString(l.Username), nullString(l.Phone),
	)
}

func (s *Store) Create(ctx context.Context, u directory.User) (directory.User, error) {
	now := s.now().UTC()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(u.Email)
	if u.Role == "" {
		u.Role = directory.RoleClient
	}
	if u.AccountStatus == "" {
		u.AccountStatus = directory.StatusPending
	}
	u.TokenVersion = 0
	u.CreatedAt = now
	u.UpdatedAt = now

	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := s.db.ExecContext(ctx, s.rebind(query),
		u.ID, u.Email, u.Username, nullString(u.Phone), nullString(u.FullName), u.PasswordHash,
		string(u.AccountStatus), u.IsVerified, string(u.Role), u.TokenVersion,
		nullMillis(u.LastLogin), toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return directory.User{}, directory.ErrDuplicate
		}
		return directory.User{}, fmt.Errorf("db error: %w", err)
	}
	u.CreatedAt = fromMillis(toMillis(u.CreatedAt))
	u.UpdatedAt = u.CreatedAt
	return u, nil
}

func (s *Store) Update(ctx context.Context, id string, p directory.Patch) (directory.User, error) {
	var status any
	if p.AccountStatus != nil {
		status = string(*p.AccountStatus)
	}
	query := `UPDATE users SET
		password_hash = COALESCE($2, password_hash),
		account_status = COALESCE($3, account_status),
		is_verified = COALESCE($4, is_verified),
		last_login = COALESCE($5, last_login),
		updated_at = $6
		WHERE id = $1
		RETURNING ` + userColumns
	u, err := s.queryUser(ctx, query,
		id, p.PasswordHash, status, p.IsVerified, nullMillis(p.LastLogin), toMillis(s.now()),
	)
	if err != nil && isUniqueViolation(err) {
		return directory.User{}, directory.ErrDuplicate
	}
	return u, err
}

func (s *Store) IncrementTokenVersion(ctx context.Context, id string) (int64, error) {
	query := `UPDATE users SET token_version = token_version + 1, updated_at = $2
		WHERE id = $1
		RETURNING token_version`

	var version int64
	err := s.db.QueryRowContext(ctx, s.rebind(query), id, toMillis(s.now())).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, directory.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return version, nil
}

func (s *Store) queryUser(ctx context.Context, query string, args ...any) (directory.User, error) {
	var (
		u         directory.User
		phone     sql.NullString
		fullName  sql.NullString
		status    string
		role      string
		lastLogin sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(
		&u.ID, &u.Email, &u.Username, &phone, &fullName, &u.PasswordHash,
		&status, &u.IsVerified, &role, &u.TokenVersion, &lastLogin, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return directory.User{}, directory.ErrNotFound
		}
		return directory.User{}, fmt.Errorf("db error: %w", err)
	}

	u.Phone = phone.String
	u.FullName = fullName.String
	u.AccountStatus = directory.AccountStatus(status)
	u.Role = directory.Role(role)
	if lastLogin.Valid {
		t := fromMillis(lastLogin.Int64)
		u.LastLogin = &t
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

// rebind rewrites $N placeholders to SQLite's ?N form.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectSQLite {
		return query
	}
	return strings.ReplaceAll(query, "$", "?")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
