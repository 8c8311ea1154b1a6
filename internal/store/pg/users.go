package pg

import (
	"context"
	"database/sql"
	"errors"

	"stayvista.app/internal/auth"
	"stayvista.app/internal/booking"
)

const userColumns = `email, name, photo, role, status, updated_at`

func scanUser(row scanner) (booking.User, error) {
	var (
		u    booking.User
		role string
	)
	if err := row.Scan(&u.Email, &u.Name, &u.Photo, &role, &u.Status, &u.UpdatedAt); err != nil {
		return booking.User{}, err
	}
	u.Role = auth.Role(role)
	return u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (booking.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		select `+userColumns+`
		from users
		where email = $1
	`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return booking.User{}, booking.ErrNotFound
	}
	if err != nil {
		return booking.User{}, err
	}
	return u, nil
}

func (s *Store) CreateUserIfAbsent(ctx context.Context, u booking.User) (booking.User, bool, error) {
	if u.Email == "" {
		return booking.User{}, false, booking.ErrInvalidInput
	}
	stored, err := scanUser(s.db.QueryRowContext(ctx, `
		insert into users (`+userColumns+`)
		values ($1, $2, $3, $4, $5, $6)
		on conflict (email) do nothing
		returning `+userColumns,
		u.Email, u.Name, u.Photo, string(u.Role), u.Status, s.now()))
	if errors.Is(err, sql.ErrNoRows) {
		existing, err := s.FindUserByEmail(ctx, u.Email)
		return existing, false, err
	}
	if err != nil {
		return booking.User{}, false, err
	}
	return stored, true, nil
}

func (s *Store) UpsertUser(ctx context.Context, email string, upd booking.UserUpdate) (booking.User, error) {
	if email == "" {
		return booking.User{}, booking.ErrInvalidInput
	}
	if err := upd.Validate(); err != nil {
		return booking.User{}, err
	}
	var role sql.NullString
	if upd.Role != nil {
		role = sql.NullString{String: string(*upd.Role), Valid: true}
	}
	return scanUser(s.db.QueryRowContext(ctx, `
		insert into users (`+userColumns+`)
		values ($1, coalesce($2::text, ''), coalesce($3::text, ''), coalesce($4::text, 'guest'), coalesce($5::text, ''), $6)
		on conflict (email) do update set
			name = coalesce($2::text, users.name),
			photo = coalesce($3::text, users.photo),
			role = coalesce($4::text, users.role),
			status = coalesce($5::text, users.status),
			updated_at = $6
		returning `+userColumns,
		email, nullString(upd.Name), nullString(upd.Photo), role, nullString(upd.Status), s.now()))
}

func (s *Store) ListUsers(ctx context.Context) ([]booking.User, error) {
	rows, err := s.db.QueryContext(ctx, `select `+userColumns+` from users order by email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]booking.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `select count(*) from users`).Scan(&n)
	return n, err
}
