package pg

import (
	"context"
	"database/sql"
	"fmt"

	"stayvista.app/internal/booking"
	"stayvista.app/internal/ids"
)

const bookingColumns = `id, room_id, guest_name, guest_email, guest_image, host_email, title, location, category,
	price, booked_on, from_date, to_date, transaction_id, created_at`

func scanBooking(row scanner) (booking.Booking, error) {
	var (
		b        booking.Booking
		from, to sql.NullTime
	)
	err := row.Scan(&b.ID, &b.RoomID, &b.Guest.Name, &b.Guest.Email, &b.Guest.Image, &b.Host,
		&b.Title, &b.Location, &b.Category, &b.Price, &b.Date, &from, &to, &b.TransactionID, &b.CreatedAt)
	if err != nil {
		return booking.Booking{}, err
	}
	b.From, b.To = from.Time, to.Time
	return b, nil
}

func (s *Store) CreateBooking(ctx context.Context, b booking.Booking) (booking.Booking, error) {
	if err := b.Validate(); err != nil {
		return booking.Booking{}, err
	}
	b.CreatedAt = s.now()
	b.ID = ids.NewAt(b.CreatedAt)
	if b.Date.IsZero() {
		b.Date = b.CreatedAt
	}
	_, err := s.db.ExecContext(ctx, `
		insert into bookings (`+bookingColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, b.ID, b.RoomID, b.Guest.Name, b.Guest.Email, b.Guest.Image, b.Host,
		b.Title, b.Location, b.Category, b.Price, b.Date.UTC(), nullTime(b.From), nullTime(b.To),
		b.TransactionID, b.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return booking.Booking{}, fmt.Errorf("%w: transaction %s", booking.ErrConflict, b.TransactionID)
			case pgErrForeignKeyViolation:
				return booking.Booking{}, fmt.Errorf("%w: room %s", booking.ErrNotFound, b.RoomID)
			}
		}
		return booking.Booking{}, err
	}
	return b, nil
}

func (s *Store) queryBookings(ctx context.Context, where string, arg string) ([]booking.Booking, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+bookingColumns+`
		from bookings
		where `+where+` = $1
		order by created_at, id
	`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]booking.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) ListBookingsByGuest(ctx context.Context, email string) ([]booking.Booking, error) {
	return s.queryBookings(ctx, "guest_email", email)
}

func (s *Store) ListBookingsByHost(ctx context.Context, email string) ([]booking.Booking, error) {
	return s.queryBookings(ctx, "host_email", email)
}

func (s *Store) ListSales(ctx context.Context) ([]booking.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `select booked_on, price from bookings order by created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]booking.Sale, 0)
	for rows.Next() {
		var sale booking.Sale
		if err := rows.Scan(&sale.Date, &sale.Price); err != nil {
			return nil, err
		}
		out = append(out, sale)
	}
	return out, rows.Err()
}
