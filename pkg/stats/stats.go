package stats

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

// MaxBuckets caps the result size of any aggregation.
const MaxBuckets = 30

var (
	// ErrStorageNil is returned when a nil storage is passed to the constructor.
	ErrStorageNil = errors.New("storage cannot be nil")

	// ErrInvalidGroupBy is returned for an unsupported grouping dimension.
	ErrInvalidGroupBy = errors.New("invalid groupBy value")
)

// GroupBy selects the aggregation dimension.
type GroupBy string

const (
	GroupByDay      GroupBy = "day"
	GroupBySender   GroupBy = "sender"
	GroupByCategory GroupBy = "category"
)

func (g GroupBy) Valid() bool {
	switch g {
	case GroupByDay, GroupBySender, GroupByCategory:
		return true
	}
	return false
}

// Filter bounds an aggregation. Zero Start/End default to the last
// MaxBuckets days ending now.
type Filter struct {
	Start   time.Time
	End     time.Time
	GroupBy GroupBy
}

// Row is one aggregation bucket. Rates are percentages: delivery rate is
// delivered over sent, open rate is opened over delivered.
type Row struct {
	Bucket       string  `json:"bucket"`
	Total        int     `json:"total"`
	Sent         int     `json:"sent"`
	Delivered    int     `json:"delivered"`
	Opened       int     `json:"opened"`
	Clicked      int     `json:"clicked"`
	Bounced      int     `json:"bounced"`
	Failed       int     `json:"failed"`
	DeliveryRate float64 `json:"delivery_rate"`
	OpenRate     float64 `json:"open_rate"`
}

// Storage provides the messages to aggregate over.
type Storage interface {
	// ListMessagesBetween returns messages created in [start, end].
	ListMessagesBetween(ctx context.Context, start, end time.Time) ([]mailer.Message, error)
}

// Service computes rollups.
type Service struct {
	storage Storage
}

// New creates a stats service.
func New(storage Storage) (*Service, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	return &Service{storage: storage}, nil
}

// Stats aggregates messages in the filter window into at most MaxBuckets
// rows. Day buckets are the most recent days of the window; sender and
// category buckets keep the highest-volume groups.
func (s *Service) Stats(ctx context.Context, f Filter) ([]Row, error) {
	groupBy := f.GroupBy
	if groupBy == "" {
		groupBy = GroupByDay
	}
	if !groupBy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGroupBy, f.GroupBy)
	}

	end := f.End
	if end.IsZero() {
		end = time.Now().UTC()
	}
	start := f.Start
	if start.IsZero() {
		start = end.AddDate(0, 0, -MaxBuckets)
	}

	messages, err := s.storage.ListMessagesBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list messages for stats: %w", err)
	}

	buckets := make(map[string][]mailer.Message)
	for _, msg := range messages {
		buckets[bucketKey(groupBy, msg)] = append(buckets[bucketKey(groupBy, msg)], msg)
	}

	rows := make([]Row, 0, len(buckets))
	for key, group := range buckets {
		rows = append(rows, aggregate(key, group))
	}

	switch groupBy {
	case GroupByDay:
		// Chronological; trimming keeps the most recent days.
		sort.Slice(rows, func(i, j int) bool { return rows[i].Bucket < rows[j].Bucket })
		if len(rows) > MaxBuckets {
			rows = rows[len(rows)-MaxBuckets:]
		}
	default:
		// Highest volume first.
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Total != rows[j].Total {
				return rows[i].Total > rows[j].Total
			}
			return rows[i].Bucket < rows[j].Bucket
		})
		if len(rows) > MaxBuckets {
			rows = rows[:MaxBuckets]
		}
	}

	return rows, nil
}

func bucketKey(groupBy GroupBy, msg mailer.Message) string {
	switch groupBy {
	case GroupBySender:
		return msg.From
	case GroupByCategory:
		return string(msg.Category)
	default:
		return msg.CreatedAt.UTC().Format("2006-01-02")
	}
}

// aggregate folds one bucket. Counts come from the recorded timestamps, not
// the current status, so a clicked message still counts as delivered and
// opened.
func aggregate(bucket string, messages []mailer.Message) Row {
	row := Row{Bucket: bucket, Total: len(messages)}
	for _, msg := range messages {
		if msg.SentAt != nil {
			row.Sent++
		}
		if msg.DeliveredAt != nil {
			row.Delivered++
		}
		if msg.OpenedAt != nil {
			row.Opened++
		}
		if msg.ClickedAt != nil {
			row.Clicked++
		}
		if msg.BouncedAt != nil || msg.Status == mailer.StatusBounced || msg.Status == mailer.StatusComplained {
			row.Bounced++
		}
		if msg.Status == mailer.StatusFailed {
			row.Failed++
		}
	}
	if row.Sent > 0 {
		row.DeliveryRate = float64(row.Delivered) / float64(row.Sent) * 100
	}
	if row.Delivered > 0 {
		row.OpenRate = float64(row.Opened) / float64(row.Delivered) * 100
	}
	return row
}
