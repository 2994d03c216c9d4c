package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
)

const queryFindOrder = `
SELECT o.id, o.code, o.state, o.sub_total, o.shipping, o.total, o.currency_code, o.placed_at,
       c.id, c.email_address, c.first_name, c.last_name
FROM orders o
LEFT JOIN customers c ON c.id = o.customer_id
WHERE o.id = $1`

const queryListOrderLines = `
SELECT id, product_name, sku, quantity, unit_price
FROM order_lines
WHERE order_id = $1
ORDER BY id`

const queryFindCustomer = `
SELECT c.id, c.email_address, c.first_name, c.last_name,
       u.id, u.identifier, u.verified, u.verification_token, u.password_reset_token,
       u.pending_identifier, u.identifier_change_token
FROM customers c
LEFT JOIN users u ON u.id = c.user_id
WHERE c.id = $1`

func (s *DB) FindOrder(ctx context.Context, id int64) (_ event.Order, err error) {
	ctx, span := s.startSpan(ctx, "FindOrder")
	defer func() { s.endSpan(span, err) }()

	var (
		o         event.Order
		placedAt  pgtype.Timestamptz
		custID    pgtype.Int8
		custEmail pgtype.Text
		custFirst pgtype.Text
		custLast  pgtype.Text
	)
	err = s.conn.QueryRow(ctx, queryFindOrder, id).Scan(
		&o.ID, &o.Code, &o.State, &o.SubTotal, &o.Shipping, &o.Total, &o.CurrencyCode, &placedAt,
		&custID, &custEmail, &custFirst, &custLast,
	)
	if err != nil {
		return event.Order{}, s.mapError(err)
	}

	if placedAt.Valid {
		t := placedAt.Time
		o.PlacedAt = &t
	}
	if custID.Valid {
		o.Customer = &event.Customer{
			ID:           custID.Int64,
			EmailAddress: custEmail.String,
			FirstName:    custFirst.String,
			LastName:     custLast.String,
		}
	}

	rows, err := s.conn.Query(ctx, queryListOrderLines, id)
	if err != nil {
		return event.Order{}, s.mapError(err)
	}

	o.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (event.OrderLine, error) {
		var l event.OrderLine
		err := row.Scan(&l.ID, &l.ProductName, &l.SKU, &l.Quantity, &l.UnitPrice)
		return l, err
	})
	if err != nil {
		return event.Order{}, s.mapError(err)
	}

	return o, nil
}

func (s *DB) FindCustomer(ctx context.Context, id int64) (_ event.Customer, err error) {
	ctx, span := s.startSpan(ctx, "FindCustomer")
	defer func() { s.endSpan(span, err) }()

	var (
		c             event.Customer
		userID        pgtype.Int8
		identifier    pgtype.Text
		verified      pgtype.Bool
		verifyToken   pgtype.Text
		resetToken    pgtype.Text
		pending       pgtype.Text
		identifierTok pgtype.Text
	)
	err = s.conn.QueryRow(ctx, queryFindCustomer, id).Scan(
		&c.ID, &c.EmailAddress, &c.FirstName, &c.LastName,
		&userID, &identifier, &verified, &verifyToken, &resetToken, &pending, &identifierTok,
	)
	if err != nil {
		return event.Customer{}, s.mapError(err)
	}

	if userID.Valid {
		c.User = &event.User{
			ID:                 userID.Int64,
			Identifier:         identifier.String,
			Verified:           verified.Bool,
			VerificationToken:  verifyToken.String,
			PasswordResetToken: resetToken.String,
			PendingIdentifier:  pending.String,
			IdentifierToken:    identifierTok.String,
		}
	}

	return c, nil
}
