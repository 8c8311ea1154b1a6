package booking

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Stats is the admin dashboard summary.
type Stats struct {
	TotalSale    float64 `json:"totalSale"`
	BookingCount int     `json:"bookingCount"`
	UserCount    int64   `json:"userCount"`
	RoomCount    int64   `json:"roomCount"`
	ChartData    [][]any `json:"chartData"`
}

// StatsSource is the subset of Store needed for statistics.
type StatsSource interface {
	ListSales(ctx context.Context) ([]Sale, error)
	CountUsers(ctx context.Context) (int64, error)
	CountRooms(ctx context.Context) (int64, error)
}

// Summarize runs the three reads concurrently; the first failure cancels the rest.
// ChartData starts with a ["Day","Sale"] header followed by one ["d/m", price] row per sale.
func Summarize(ctx context.Context, src StatsSource) (Stats, error) {
	var (
		sales []Sale
		users int64
		rooms int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sales, err = src.ListSales(gctx)
		return err
	})
	g.Go(func() (err error) {
		users, err = src.CountUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		rooms, err = src.CountRooms(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("booking: summarize: %w", err)
	}

	st := Stats{
		BookingCount: len(sales),
		UserCount:    users,
		RoomCount:    rooms,
		ChartData:    make([][]any, 0, len(sales)+1),
	}
	st.ChartData = append(st.ChartData, []any{"Day", "Sale"})
	for _, s := range sales {
		st.TotalSale += s.Price
		d := s.Date.UTC()
		st.ChartData = append(st.ChartData, []any{fmt.Sprintf("%d/%d", d.Day(), int(d.Month())), s.Price})
	}
	return st, nil
}

func sortUsers(users []User) {
	slices.SortFunc(users, func(a, b User) int { return strings.Compare(a.Email, b.Email) })
}
