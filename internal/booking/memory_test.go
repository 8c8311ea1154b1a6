package booking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"stayvista.app/internal/auth"
)

func sampleRoom(host string) Room {
	return Room{
		Title:    "Lake cabin",
		Location: "Tahoe",
		Category: "Lake",
		Price:    120,
		Guests:   4,
		Host:     Host{Name: "Host", Email: host},
	}
}

func TestCreateUserIfAbsentKeepsExisting(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	u, created, err := s.CreateUserIfAbsent(ctx, User{Email: "a@x.com", Role: auth.RoleGuest, Status: StatusVerified})
	if err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}
	role := auth.RoleHost
	if _, err := s.UpsertUser(ctx, "a@x.com", UserUpdate{Role: &role}); err != nil {
		t.Fatal(err)
	}

	again, created, err := s.CreateUserIfAbsent(ctx, User{Email: "a@x.com", Role: auth.RoleGuest})
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Fatal("expected existing record to be kept")
	}
	if again.Role != auth.RoleHost || again.Status != u.Status {
		t.Fatalf("existing record was modified: %+v", again)
	}
}

func TestUpsertUserCreatesGuestAndValidates(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	status := StatusRequested
	u, err := s.UpsertUser(ctx, "new@x.com", UserUpdate{Status: &status})
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != auth.RoleGuest || u.Status != StatusRequested {
		t.Fatalf("unexpected upserted user: %+v", u)
	}

	bad := auth.Role("owner")
	if _, err := s.UpsertUser(ctx, "new@x.com", UserUpdate{Role: &bad}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRoomsByCategoryAndHost(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	lake, err := s.CreateRoom(ctx, sampleRoom("h1@x.com"))
	if err != nil {
		t.Fatal(err)
	}
	beach := sampleRoom("h2@x.com")
	beach.Category = "Beach"
	if _, err := s.CreateRoom(ctx, beach); err != nil {
		t.Fatal(err)
	}

	all, _ := s.ListRooms(ctx, "")
	if len(all) != 2 || all[0].ID != lake.ID {
		t.Fatalf("unexpected room listing: %+v", all)
	}
	lakes, _ := s.ListRooms(ctx, "Lake")
	if len(lakes) != 1 || lakes[0].ID != lake.ID {
		t.Fatalf("unexpected category filter: %+v", lakes)
	}
	hosted, _ := s.ListRoomsByHost(ctx, "h2@x.com")
	if len(hosted) != 1 || hosted[0].Category != "Beach" {
		t.Fatalf("unexpected host filter: %+v", hosted)
	}
	none, _ := s.ListRoomsByHost(ctx, "nobody@x.com")
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", none)
	}

	if err := s.SetRoomBooked(ctx, lake.ID, true); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetRoom(ctx, lake.ID)
	if !got.Booked {
		t.Fatal("expected room to be booked")
	}
	if err := s.SetRoomBooked(ctx, "missing", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateRoomValidation(t *testing.T) {
	s := NewInMemory()
	r := sampleRoom("")
	r.Price = 0
	if _, err := s.CreateRoom(context.Background(), r); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateBookingRejectsDuplicateTransaction(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	room, _ := s.CreateRoom(ctx, sampleRoom("h@x.com"))

	b := Booking{RoomID: room.ID, Guest: Guest{Email: "g@x.com"}, Host: "h@x.com", Price: 240, TransactionID: "pi_1"}
	if _, err := s.CreateBooking(ctx, b); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateBooking(ctx, b); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	b.RoomID = "missing"
	b.TransactionID = "pi_2"
	if _, err := s.CreateBooking(ctx, b); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	guest, _ := s.ListBookingsByGuest(ctx, "g@x.com")
	host, _ := s.ListBookingsByHost(ctx, "h@x.com")
	if len(guest) != 1 || len(host) != 1 {
		t.Fatalf("unexpected listings: guest=%d host=%d", len(guest), len(host))
	}
}

func TestConcurrentUserWrites(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = s.CreateUserIfAbsent(ctx, User{Email: "same@x.com", Role: auth.RoleGuest})
		}()
	}
	wg.Wait()
	if n, _ := s.CountUsers(ctx); n != 1 {
		t.Fatalf("expected a single user, got %d", n)
	}
}

func TestRolesAdapter(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	_, _, _ = s.CreateUserIfAbsent(ctx, User{Email: "h@x.com", Role: auth.RoleHost})

	roles := Roles{Users: s}
	if r, err := roles.FindRole(ctx, "h@x.com"); err != nil || r != auth.RoleHost {
		t.Fatalf("FindRole = %q, %v", r, err)
	}
	if _, err := roles.FindRole(ctx, "nobody@x.com"); !errors.Is(err, auth.ErrUserNotFound) {
		t.Fatalf("expected auth.ErrUserNotFound, got %v", err)
	}
}
