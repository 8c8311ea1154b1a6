package booking

import (
	"context"
	"sync"
	"time"

	"stayvista.app/internal/auth"
	"stayvista.app/internal/ids"
)

// InMemory implements Store with in-process concurrency safety.
// It backs local development and tests when no database is configured.
type InMemory struct {
	mu        sync.RWMutex
	users     map[string]User
	rooms     map[string]Room
	roomOrder []string
	bookings  []Booking
	byTx      map[string]struct{}
	now       func() time.Time
}

var _ Store = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{
		users: make(map[string]User),
		rooms: make(map[string]Room),
		byTx:  make(map[string]struct{}),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *InMemory) FindUserByEmail(ctx context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *InMemory) CreateUserIfAbsent(ctx context.Context, u User) (User, bool, error) {
	if u.Email == "" {
		return User{}, false, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[u.Email]; ok {
		return existing, false, nil
	}
	u.UpdatedAt = s.now()
	s.users[u.Email] = u
	return u, true, nil
}

func (s *InMemory) UpsertUser(ctx context.Context, email string, upd UserUpdate) (User, error) {
	if email == "" {
		return User{}, ErrInvalidInput
	}
	if err := upd.Validate(); err != nil {
		return User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		u = User{Email: email, Role: auth.RoleGuest}
	}
	upd.apply(&u)
	u.UpdatedAt = s.now()
	s.users[email] = u
	return u, nil
}

func (s *InMemory) ListUsers(ctx context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sortUsers(out)
	return out, nil
}

func (s *InMemory) CountUsers(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *InMemory) ListRooms(ctx context.Context, category string) ([]Room, error) {
	return s.filterRooms(func(r Room) bool { return category == "" || r.Category == category }), nil
}

func (s *InMemory) GetRoom(ctx context.Context, id string) (Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return Room{}, ErrNotFound
	}
	return r, nil
}

func (s *InMemory) ListRoomsByHost(ctx context.Context, email string) ([]Room, error) {
	return s.filterRooms(func(r Room) bool { return r.Host.Email == email }), nil
}

func (s *InMemory) CreateRoom(ctx context.Context, r Room) (Room, error) {
	if err := r.Validate(); err != nil {
		return Room{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.CreatedAt = s.now()
	r.ID = ids.NewAt(r.CreatedAt)
	s.rooms[r.ID] = r
	s.roomOrder = append(s.roomOrder, r.ID)
	return r, nil
}

func (s *InMemory) SetRoomBooked(ctx context.Context, id string, booked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return ErrNotFound
	}
	r.Booked = booked
	s.rooms[id] = r
	return nil
}

func (s *InMemory) CountRooms(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.rooms)), nil
}

func (s *InMemory) CreateBooking(ctx context.Context, b Booking) (Booking, error) {
	if err := b.Validate(); err != nil {
		return Booking{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[b.RoomID]; !ok {
		return Booking{}, ErrNotFound
	}
	if _, dup := s.byTx[b.TransactionID]; dup {
		return Booking{}, ErrConflict
	}
	b.CreatedAt = s.now()
	b.ID = ids.NewAt(b.CreatedAt)
	if b.Date.IsZero() {
		b.Date = b.CreatedAt
	}
	s.bookings = append(s.bookings, b)
	s.byTx[b.TransactionID] = struct{}{}
	return b, nil
}

func (s *InMemory) ListBookingsByGuest(ctx context.Context, email string) ([]Booking, error) {
	return s.filterBookings(func(b Booking) bool { return b.Guest.Email == email }), nil
}

func (s *InMemory) ListBookingsByHost(ctx context.Context, email string) ([]Booking, error) {
	return s.filterBookings(func(b Booking) bool { return b.Host == email }), nil
}

func (s *InMemory) ListSales(ctx context.Context) ([]Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Sale, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, Sale{Date: b.Date, Price: b.Price})
	}
	return out, nil
}

func (s *InMemory) filterRooms(keep func(Room) bool) []Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Room, 0)
	for _, id := range s.roomOrder {
		if r := s.rooms[id]; keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s *InMemory) filterBookings(keep func(Booking) bool) []Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Booking, 0)
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}
