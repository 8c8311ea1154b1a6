package pg

import (
	"context"
	"database/sql"
	"errors"

	"stayvista.app/internal/booking"
	"stayvista.app/internal/ids"
)

const roomColumns = `id, title, location, category, description, image, price, guests, bedrooms, bathrooms,
	from_date, to_date, host_name, host_image, host_email, booked, created_at`

func scanRoom(row scanner) (booking.Room, error) {
	var (
		r        booking.Room
		from, to sql.NullTime
	)
	err := row.Scan(&r.ID, &r.Title, &r.Location, &r.Category, &r.Description, &r.Image, &r.Price,
		&r.Guests, &r.Bedrooms, &r.Bathrooms, &from, &to,
		&r.Host.Name, &r.Host.Image, &r.Host.Email, &r.Booked, &r.CreatedAt)
	if err != nil {
		return booking.Room{}, err
	}
	r.From, r.To = from.Time, to.Time
	return r, nil
}

func (s *Store) queryRooms(ctx context.Context, query string, args ...any) ([]booking.Room, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]booking.Room, 0)
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListRooms(ctx context.Context, category string) ([]booking.Room, error) {
	return s.queryRooms(ctx, `
		select `+roomColumns+`
		from rooms
		where ($1::text = '' or category = $1::text)
		order by created_at, id
	`, category)
}

func (s *Store) GetRoom(ctx context.Context, id string) (booking.Room, error) {
	r, err := scanRoom(s.db.QueryRowContext(ctx, `select `+roomColumns+` from rooms where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return booking.Room{}, booking.ErrNotFound
	}
	return r, err
}

func (s *Store) ListRoomsByHost(ctx context.Context, email string) ([]booking.Room, error) {
	return s.queryRooms(ctx, `
		select `+roomColumns+`
		from rooms
		where host_email = $1
		order by created_at, id
	`, email)
}

func (s *Store) CreateRoom(ctx context.Context, r booking.Room) (booking.Room, error) {
	if err := r.Validate(); err != nil {
		return booking.Room{}, err
	}
	r.CreatedAt = s.now()
	r.ID = ids.NewAt(r.CreatedAt)
	_, err := s.db.ExecContext(ctx, `
		insert into rooms (`+roomColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, r.ID, r.Title, r.Location, r.Category, r.Description, r.Image, r.Price,
		r.Guests, r.Bedrooms, r.Bathrooms, nullTime(r.From), nullTime(r.To),
		r.Host.Name, r.Host.Image, r.Host.Email, r.Booked, r.CreatedAt)
	if err != nil {
		return booking.Room{}, err
	}
	return r, nil
}

func (s *Store) SetRoomBooked(ctx context.Context, id string, booked bool) error {
	res, err := s.db.ExecContext(ctx, `update rooms set booked = $2 where id = $1`, id, booked)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (s *Store) CountRooms(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `select count(*) from rooms`).Scan(&n)
	return n, err
}
