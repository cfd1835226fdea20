package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mobanklabs/otpgate/internal/otp/entity"
)

// SaveCode replaces the user's unconsumed code, if any, with rec in a single
// transaction so there is never more than one active code per user.
func (s *DB) SaveCode(ctx context.Context, rec entity.Record) (err error) {
	ctx, span := s.startSpan(ctx, "SaveCode")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	if _, err = tx.Exec(ctx,
		`DELETE FROM otp_codes WHERE user_id = $1 AND consumed_at IS NULL`,
		rec.UserID,
	); err != nil {
		return s.mapError(err)
	}

	if _, err = tx.Exec(ctx,
		`INSERT INTO otp_codes (id, user_id, code, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.UserID, rec.Code, rec.CreatedAt, rec.ExpiresAt,
	); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

// FindActiveCode returns the user's single unconsumed record.
func (s *DB) FindActiveCode(ctx context.Context, userID string) (rec *entity.Record, err error) {
	ctx, span := s.startSpan(ctx, "FindActiveCode")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx,
		`SELECT id, user_id, code, created_at, expires_at, consumed_at
		 FROM otp_codes
		 WHERE user_id = $1 AND consumed_at IS NULL
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	)

	var out entity.Record
	if err = s.mapError(row.Scan(
		&out.ID, &out.UserID, &out.Code, &out.CreatedAt, &out.ExpiresAt, &out.ConsumedAt,
	)); err != nil {
		return nil, err
	}

	return &out, nil
}

// ConsumeCode marks the matching unexpired, unconsumed code as used. The
// predicate and the write are one statement, so among concurrent attempts
// exactly one sees a row.
func (s *DB) ConsumeCode(ctx context.Context, userID, digest string, now time.Time) (ok bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeCode")
	defer func() { s.endSpan(span, err) }()

	var id int64
	err = s.conn.QueryRow(ctx,
		`UPDATE otp_codes
		 SET consumed_at = $3
		 WHERE user_id = $1 AND code = $2 AND consumed_at IS NULL AND expires_at >= $3
		 RETURNING id`,
		userID, digest, now,
	).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, s.mapError(err)
	}

	return true, nil
}

func (s *DB) DeleteCode(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteCode")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM otp_codes WHERE id = $1`, id)
	return s.mapError(err)
}

// PurgeExpired deletes records whose expiry is before the cutoff and returns
// them so the caller can archive.
func (s *DB) PurgeExpired(ctx context.Context, before time.Time) (recs []entity.Record, err error) {
	ctx, span := s.startSpan(ctx, "PurgeExpired")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx,
		`DELETE FROM otp_codes
		 WHERE expires_at < $1
		 RETURNING id, user_id, code, created_at, expires_at, consumed_at`,
		before,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec entity.Record
		if err = rows.Scan(
			&rec.ID, &rec.UserID, &rec.Code, &rec.CreatedAt, &rec.ExpiresAt, &rec.ConsumedAt,
		); err != nil {
			return nil, s.mapError(err)
		}
		recs = append(recs, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return recs, nil
}
