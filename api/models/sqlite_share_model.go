package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/moyoez/sharegate/access"
	"github.com/moyoez/sharegate/tool"
	"github.com/moyoez/sharegate/types"
)

// Nullable columns mirror an ownCloud style share table: a row may lack
// uid_owner, file_source or item_type and must still be readable so the gate
// can reject it.
const shareSchema = `
CREATE TABLE IF NOT EXISTS shares (
    id           TEXT PRIMARY KEY,
    token        TEXT NOT NULL UNIQUE,
    item_type    TEXT,
    uid_owner    TEXT,
    file_source  TEXT,
    share_type   INTEGER NOT NULL DEFAULT 3,
    share_with   TEXT,
    secret_hash  TEXT,
    file_target  TEXT,
    source_path  TEXT,
    created_at   INTEGER NOT NULL,
    expires_at   INTEGER NOT NULL DEFAULT 0
);
`

const shareColumns = `id, token, item_type, uid_owner, file_source, share_type, share_with, secret_hash, file_target, created_at, expires_at`

// SQLiteShareStore persists shares in a SQLite file.
type SQLiteShareStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ ShareStore = (*SQLiteShareStore)(nil)

// OpenSQLiteShareStore opens (or creates) the database at path and ensures the schema exists.
func OpenSQLiteShareStore(path string) (*SQLiteShareStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open share db: %w", err)
	}
	if _, err := db.Exec(shareSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create share schema: %w", err)
	}
	tool.DefaultLogger.Infof("[ShareDB] Using share database %s", path)
	return &SQLiteShareStore{db: db, now: time.Now}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShare(row rowScanner) (*types.ShareRecord, error) {
	var (
		rec                                                types.ShareRecord
		itemType, owner, source, shareWith, hash, fileTarg sql.NullString
		created, expires                                   int64
		shareType                                          int
	)
	if err := row.Scan(&rec.ShareID, &rec.Token, &itemType, &owner, &source, &shareType,
		&shareWith, &hash, &fileTarg, &created, &expires); err != nil {
		return nil, err
	}
	rec.ItemType = types.ItemType(itemType.String)
	rec.OwnerID = owner.String
	rec.SourceID = source.String
	rec.ShareType = types.ShareType(shareType)
	rec.ShareWith = shareWith.String
	rec.SecretHash = hash.String
	rec.FileTarget = fileTarg.String
	rec.CreatedAt = time.Unix(created, 0)
	if expires > 0 {
		rec.ExpiresAt = time.Unix(expires, 0)
	}
	return &rec, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *SQLiteShareStore) ResolveShareByToken(ctx context.Context, token string, opts access.ResolveOptions) (*types.ShareRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shareColumns+` FROM shares WHERE token = ?`, token)
	rec, err := scanShare(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query share by token: %w", err)
	}
	if expired(rec, s.now()) {
		if _, err := s.DeleteShare(ctx, rec.ShareID); err != nil {
			tool.DefaultLogger.Warnf("[ShareDB] Failed to drop expired share %s: %v", rec.ShareID, err)
		}
		return nil, nil
	}
	if !visibleTo(rec, opts) {
		return nil, nil
	}
	return rec, nil
}

func (s *SQLiteShareStore) CreateShare(ctx context.Context, rec *types.ShareRecord, localPath string) error {
	var expires int64
	if !rec.ExpiresAt.IsZero() {
		expires = rec.ExpiresAt.Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shares (id, token, item_type, uid_owner, file_source, share_type, share_with, secret_hash, file_target, source_path, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ShareID, rec.Token, nullable(string(rec.ItemType)), nullable(rec.OwnerID), nullable(rec.SourceID),
		int(rec.ShareType), nullable(rec.ShareWith), nullable(rec.SecretHash), nullable(rec.FileTarget),
		nullable(localPath), rec.CreatedAt.Unix(), expires,
	)
	if err != nil {
		if isDuplicate(err) {
			return ErrShareExists
		}
		return fmt.Errorf("insert share: %w", err)
	}
	return nil
}

// isDuplicate reports a clash on the share id or the token.
func isDuplicate(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func (s *SQLiteShareStore) ListShares(ctx context.Context) ([]types.ShareRecord, error) {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM shares WHERE expires_at > 0 AND expires_at < ?`, s.now().Unix()); err != nil {
		return nil, fmt.Errorf("prune expired shares: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+shareColumns+` FROM shares ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()

	var shares []types.ShareRecord
	for rows.Next() {
		rec, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		shares = append(shares, *rec)
	}
	return shares, rows.Err()
}

func (s *SQLiteShareStore) GetShare(ctx context.Context, shareID string) (*types.ShareRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shareColumns+` FROM shares WHERE id = ?`, shareID)
	rec, err := scanShare(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query share: %w", err)
	}
	if expired(rec, s.now()) {
		return nil, nil
	}
	return rec, nil
}

func (s *SQLiteShareStore) DeleteShare(ctx context.Context, shareID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM shares WHERE id = ?`, shareID)
	if err != nil {
		return false, fmt.Errorf("delete share: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteShareStore) SourcePath(ctx context.Context, sourceID string) (string, bool, error) {
	var p sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT source_path FROM shares WHERE file_source = ? LIMIT 1`, sourceID).Scan(&p)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query source path: %w", err)
	}
	return p.String, p.Valid && p.String != "", nil
}

func (s *SQLiteShareStore) Close() error {
	return s.db.Close()
}
