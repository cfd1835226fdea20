package db

import (
	"context"

	"github.com/mobanklabs/otpgate/internal/otp/entity"
)

func (s *DB) GetContact(ctx context.Context, userID string) (c *entity.Contact, err error) {
	ctx, span := s.startSpan(ctx, "GetContact")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx,
		`SELECT user_id, email, full_name FROM user_contacts WHERE user_id = $1`,
		userID,
	)

	var out entity.Contact
	if err = s.mapError(row.Scan(&out.UserID, &out.Email, &out.FullName)); err != nil {
		return nil, err
	}

	return &out, nil
}
