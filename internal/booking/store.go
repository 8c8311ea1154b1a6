package booking

import (
	"context"
	"errors"

	"stayvista.app/internal/auth"
)

type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (User, error)
	// CreateUserIfAbsent stores u unless a record for u.Email exists; the
	// existing record is returned untouched with created=false.
	CreateUserIfAbsent(ctx context.Context, u User) (stored User, created bool, err error)
	UpsertUser(ctx context.Context, email string, upd UserUpdate) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CountUsers(ctx context.Context) (int64, error)
}

type RoomStore interface {
	// ListRooms returns every room when category is empty.
	ListRooms(ctx context.Context, category string) ([]Room, error)
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRoomsByHost(ctx context.Context, email string) ([]Room, error)
	CreateRoom(ctx context.Context, r Room) (Room, error)
	SetRoomBooked(ctx context.Context, id string, booked bool) error
	CountRooms(ctx context.Context) (int64, error)
}

type BookingStore interface {
	CreateBooking(ctx context.Context, b Booking) (Booking, error)
	ListBookingsByGuest(ctx context.Context, email string) ([]Booking, error)
	ListBookingsByHost(ctx context.Context, email string) ([]Booking, error)
	ListSales(ctx context.Context) ([]Sale, error)
}

// Store is the full persistence contract of the service.
type Store interface {
	UserStore
	RoomStore
	BookingStore
}

// Roles adapts a UserStore to the lookup used by auth.Gate.
type Roles struct {
	Users UserStore
}

func (r Roles) FindRole(ctx context.Context, email string) (auth.Role, error) {
	u, err := r.Users.FindUserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return "", auth.ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	return u.Role, nil
}
