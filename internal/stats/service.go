// Package stats assembles the dashboard overview: entity totals plus the
// monthly shipment series.
package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/moridelogica/backoffice/internal/domain"
	"github.com/moridelogica/backoffice/internal/store"
)

// monthLayout is the bucket label, e.g. "Jul 2025".
const monthLayout = "Jan 2006"

// Overview is the stats view.
type Overview struct {
	TotalUsers     int          `json:"totalUsers"`
	TotalLocations int          `json:"totalLocations"`
	TotalRecords   int          `json:"totalRecords"`
	Monthly        []MonthCount `json:"monthly"`
}

// MonthCount is one point on the monthly shipment series.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// Service computes the overview.
type Service struct {
	store store.Store
}

// NewService constructs a Service.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Fetch issues the three reads concurrently and fails as a whole if any
// one fails; no partial stats are shown.
func (s *Service) Fetch(ctx context.Context) (Overview, error) {
	var (
		overview Overview
		records  []store.Document
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.Count(ctx, store.Users)
		overview.TotalUsers = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.Count(ctx, store.Locations)
		overview.TotalLocations = n
		return err
	})
	g.Go(func() error {
		docs, err := s.store.List(ctx, store.Records)
		records = docs
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, fmt.Errorf("stats: fetch: %w", err)
	}

	overview.TotalRecords = len(records)
	overview.Monthly = monthlySeries(records)
	return overview, nil
}

// monthlySeries buckets records by creation month, chronologically sorted.
// A record with no usable creation date counts toward the current month,
// mirroring the read-side date fallback.
func monthlySeries(records []store.Document) []MonthCount {
	buckets := make(map[time.Time]int)
	for _, doc := range records {
		r := domain.RecordFromDocument(doc.ID, doc.Data, doc.CreatedAt)
		month := time.Date(r.CreatedAt.Year(), r.CreatedAt.Month(), 1, 0, 0, 0, 0, time.UTC)
		buckets[month]++
	}

	months := make([]time.Time, 0, len(buckets))
	for month := range buckets {
		months = append(months, month)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	series := make([]MonthCount, 0, len(months))
	for _, month := range months {
		series = append(series, MonthCount{
			Month: month.Format(monthLayout),
			Count: buckets[month],
		})
	}
	return series
}
