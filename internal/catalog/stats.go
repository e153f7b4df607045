package catalog

import (
	"context"
	"sort"

	"librarium/internal/entity"
)

// Stats aggregates a user's catalog. HasData distinguishes the explicit
// empty-catalog result from a zero-valued one.
type Stats struct {
	HasData    bool           `json:"has_data"`
	TotalBooks int            `json:"total_books"`
	ByStatus   map[string]int `json:"by_status"`
	ByRating   map[int]int    `json:"by_rating"`
	Monthly    []MonthlyCount `json:"monthly_additions"`
}

// MonthlyCount is one point of the additions-per-calendar-month series.
type MonthlyCount struct {
	Month string `json:"month"` // "YYYY-MM"
	Count int    `json:"count"`
}

// Dashboard summarizes the catalog for the landing view.
type Dashboard struct {
	TotalBooks  int           `json:"total_books"`
	BooksRead   int           `json:"books_read"`
	Collections int           `json:"collections"`
	Recent      []entity.Book `json:"recent"`
}

const recentLimit = 5

// Statistics computes status and rating distributions plus the monthly
// additions series, ascending by month. ByRating always carries all five
// rating keys, so chartable output never has holes.
func (s *Service) Statistics(ctx context.Context, username string) (Stats, error) {
	user, err := s.creds.Get(username)
	if err != nil {
		return Stats{}, err
	}
	if len(user.Books) == 0 {
		return Stats{HasData: false}, nil
	}

	stats := Stats{
		HasData:    true,
		TotalBooks: len(user.Books),
		ByStatus:   map[string]int{},
		ByRating:   map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}
	byMonth := map[string]int{}
	for _, b := range user.Books {
		stats.ByStatus[string(b.Status)]++
		stats.ByRating[b.Rating]++
		byMonth[b.DateAdded.Month()]++
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	for _, m := range months {
		stats.Monthly = append(stats.Monthly, MonthlyCount{Month: m, Count: byMonth[m]})
	}
	return stats, nil
}

// DashboardSummary returns totals and the most recent additions.
func (s *Service) DashboardSummary(ctx context.Context, username string) (Dashboard, error) {
	user, err := s.creds.Get(username)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		TotalBooks:  len(user.Books),
		Collections: len(user.Collections),
		Recent:      []entity.Book{},
	}
	for _, b := range user.Books {
		if b.Status == entity.StatusRead {
			d.BooksRead++
		}
	}

	recent := make([]entity.Book, len(user.Books))
	copy(recent, user.Books)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].DateAdded.After(recent[j].DateAdded.Time)
	})
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	d.Recent = recent
	return d, nil
}
