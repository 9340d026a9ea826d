package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"idverify/internal/document/models"
	"idverify/pkg/platform/secrets"
	"idverify/pkg/platform/sentinel"
	txcontext "idverify/pkg/platform/tx"
)

// Schema creates the verification_records table. Identity columns hold
// secretbox-sealed base64 text.
const Schema = `
CREATE TABLE IF NOT EXISTS verification_records (
	request_id   TEXT PRIMARY KEY,
	subject      TEXT NOT NULL DEFAULT '',
	first_name   TEXT NOT NULL DEFAULT '',
	last_name    TEXT NOT NULL DEFAULT '',
	id_number    TEXT NOT NULL DEFAULT '',
	nationality  TEXT NOT NULL DEFAULT '',
	selfie_hash  TEXT NOT NULL DEFAULT '',
	id_card_hash TEXT NOT NULL,
	result       JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	expires_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS verification_records_expires_at_idx ON verification_records (expires_at);
`

// PostgresStore persists sealed records in PostgreSQL.
type PostgresStore struct {
	db    *sql.DB
	codec codec
}

func NewPostgresStore(db *sql.DB, sealer *secrets.Sealer) *PostgresStore {
	return &PostgresStore{db: db, codec: codec{sealer: sealer}}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// execer joins the transaction carried in ctx, if any.
func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Migrate applies Schema. It is idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate verification_records: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, record *models.VerificationRecord) error {
	sealed, err := s.codec.seal(record)
	if err != nil {
		return err
	}
	result, err := json.Marshal(sealed.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	query := `
		INSERT INTO verification_records (
			request_id, subject, first_name, last_name, id_number, nationality,
			selfie_hash, id_card_hash, result, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (request_id) DO UPDATE SET
			result = EXCLUDED.result,
			expires_at = EXCLUDED.expires_at
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		sealed.RequestID, sealed.Subject, sealed.FirstName, sealed.LastName, sealed.IDNumber, sealed.Nationality,
		sealed.SelfieHash, sealed.IDCardHash, result, sealed.CreatedAt, sealed.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByRequestID(ctx context.Context, requestID string, now time.Time) (*models.VerificationRecord, error) {
	query := `
		SELECT request_id, subject, first_name, last_name, id_number, nationality,
			selfie_hash, id_card_hash, result, created_at, expires_at
		FROM verification_records
		WHERE request_id = $1
	`
	var (
		sealed sealedRecord
		result []byte
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, requestID).Scan(
		&sealed.RequestID, &sealed.Subject, &sealed.FirstName, &sealed.LastName, &sealed.IDNumber, &sealed.Nationality,
		&sealed.SelfieHash, &sealed.IDCardHash, &result, &sealed.CreatedAt, &sealed.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}
	if !now.Before(sealed.ExpiresAt) {
		return nil, sentinel.ErrExpired
	}
	if err := json.Unmarshal(result, &sealed.Result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return s.codec.open(&sealed)
}

func (s *PostgresStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM verification_records WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge expired records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge expired records: %w", err)
	}
	return int(n), nil
}

// Delete removes the given records in one round trip.
func (s *PostgresStore) Delete(ctx context.Context, requestIDs []string) (int, error) {
	if len(requestIDs) == 0 {
		return 0, nil
	}
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM verification_records WHERE request_id = ANY($1::text[])`, pq.Array(requestIDs))
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	return int(n), nil
}
