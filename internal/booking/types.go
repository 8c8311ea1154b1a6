package booking

import (
	"errors"
	"strings"
	"time"

	"stayvista.app/internal/auth"
)

var (
	ErrNotFound     = errors.New("booking: not found")
	ErrConflict     = errors.New("booking: already exists")
	ErrInvalidInput = errors.New("booking: invalid input")
)

// User status values the web client understands.
const (
	StatusVerified  = "Verified"
	StatusRequested = "Requested"
)

// User is the stored profile and role of an account, keyed by email.
type User struct {
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Photo     string    `json:"photo,omitempty"`
	Role      auth.Role `json:"role"`
	Status    string    `json:"status,omitempty"`
	UpdatedAt time.Time `json:"timestamp"`
}

// UserUpdate carries the fields to change; nil means keep.
type UserUpdate struct {
	Name   *string
	Photo  *string
	Role   *auth.Role
	Status *string
}

func (u UserUpdate) apply(dst *User) {
	if u.Name != nil {
		dst.Name = *u.Name
	}
	if u.Photo != nil {
		dst.Photo = *u.Photo
	}
	if u.Role != nil {
		dst.Role = *u.Role
	}
	if u.Status != nil {
		dst.Status = *u.Status
	}
}

func (u UserUpdate) Validate() error {
	if u.Role != nil && !u.Role.Valid() {
		return errors.Join(ErrInvalidInput, errors.New("unknown role"))
	}
	if u.Status != nil && !ValidStatus(*u.Status) {
		return errors.Join(ErrInvalidInput, errors.New("unknown status"))
	}
	return nil
}

func ValidStatus(s string) bool {
	return s == StatusVerified || s == StatusRequested
}

// Host is the listing owner as embedded in a room.
type Host struct {
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
	Email string `json:"email"`
}

// Room is a listing.
type Room struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	Price       float64   `json:"price"`
	Guests      int       `json:"guests"`
	Bedrooms    int       `json:"bedrooms"`
	Bathrooms   int       `json:"bathrooms"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Host        Host      `json:"host"`
	Booked      bool      `json:"booked"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r Room) Validate() error {
	var problems []error
	if strings.TrimSpace(r.Title) == "" {
		problems = append(problems, errors.New("title is required"))
	}
	if strings.TrimSpace(r.Location) == "" {
		problems = append(problems, errors.New("location is required"))
	}
	if r.Price <= 0 {
		problems = append(problems, errors.New("price must be positive"))
	}
	if r.Guests < 0 || r.Bedrooms < 0 || r.Bathrooms < 0 {
		problems = append(problems, errors.New("counts must not be negative"))
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		problems = append(problems, errors.New("to must not precede from"))
	}
	if r.Host.Email == "" {
		problems = append(problems, errors.New("host email is required"))
	}
	if len(problems) > 0 {
		return errors.Join(append([]error{ErrInvalidInput}, problems...)...)
	}
	return nil
}

// Guest is the booking party as embedded in a booking.
type Guest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

// Booking records a paid reservation of a room.
type Booking struct {
	ID            string    `json:"_id"`
	RoomID        string    `json:"roomId"`
	Guest         Guest     `json:"guest"`
	Host          string    `json:"host"`
	Title         string    `json:"title,omitempty"`
	Location      string    `json:"location,omitempty"`
	Category      string    `json:"category,omitempty"`
	Price         float64   `json:"price"`
	Date          time.Time `json:"date"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	TransactionID string    `json:"transactionId"`
	CreatedAt     time.Time `json:"created_at"`
}

func (b Booking) Validate() error {
	var problems []error
	if strings.TrimSpace(b.RoomID) == "" {
		problems = append(problems, errors.New("roomId is required"))
	}
	if b.Guest.Email == "" {
		problems = append(problems, errors.New("guest email is required"))
	}
	if b.Price <= 0 {
		problems = append(problems, errors.New("price must be positive"))
	}
	if strings.TrimSpace(b.TransactionID) == "" {
		problems = append(problems, errors.New("transactionId is required"))
	}
	if len(problems) > 0 {
		return errors.Join(append([]error{ErrInvalidInput}, problems...)...)
	}
	return nil
}

// Sale is the projection of a booking used by statistics.
type Sale struct {
	Date  time.Time
	Price float64
}
