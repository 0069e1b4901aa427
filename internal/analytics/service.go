package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/gymtrack/gymtrack/internal/workouts"
)

// trailingWeeks is how many weekly volume buckets the summary covers.
const trailingWeeks = 8

// WorkoutSource supplies the logs the aggregations run over.
type WorkoutSource interface {
	ListByUser(ctx context.Context, userID string) []workouts.WorkoutLog
}

// ChartPoint is one labelled value in a chart series.
type ChartPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Summary aggregates one user's workout history.
type Summary struct {
	TotalWorkouts    int          `json:"totalWorkouts"`
	TypeDistribution []ChartPoint `json:"typeDistribution"`
	WeeklyVolume     []ChartPoint `json:"weeklyVolume"`
	MonthlyFrequency []ChartPoint `json:"monthlyFrequency"`
}

// Service computes per-user aggregates with a versioned cache in front.
type Service struct {
	source WorkoutSource
	cache  *Cache
	now    func() time.Time
}

// NewService builds a Service instance.
func NewService(source WorkoutSource, cache *Cache) *Service {
	return &Service{source: source, cache: cache, now: time.Now}
}

// GetSummary returns the cached or freshly computed summary for a user.
func (s *Service) GetSummary(ctx context.Context, userID string) (Summary, error) {
	key, err := s.cache.BuildKey(ctx, "analytics", "summary", userID)
	if err != nil {
		return Summary{}, err
	}
	var summary Summary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
		return s.compute(ctx, userID), nil
	})
	return summary, err
}

func (s *Service) compute(ctx context.Context, userID string) Summary {
	logs := s.source.ListByUser(ctx, userID)
	return Summary{
		TotalWorkouts:    len(logs),
		TypeDistribution: typeDistribution(logs),
		WeeklyVolume:     weeklyVolume(logs, s.now()),
		MonthlyFrequency: monthlyFrequency(logs),
	}
}

// typeDistribution counts logs per workout type in the canonical type
// order, dropping empty buckets.
func typeDistribution(logs []workouts.WorkoutLog) []ChartPoint {
	counts := make(map[workouts.WorkoutType]int)
	for _, l := range logs {
		counts[l.Type]++
	}
	points := []ChartPoint{}
	for _, t := range workouts.Types {
		if counts[t] > 0 {
			points = append(points, ChartPoint{Name: string(t), Value: counts[t]})
		}
	}
	return points
}

// weeklyVolume sums sets*reps per week over the trailing window. The week
// key counts calendar weeks from January 1st offset by that year's
// starting weekday, so buckets line up with what users saw historically
// rather than ISO-8601 weeks.
func weeklyVolume(logs []workouts.WorkoutLog, now time.Time) []ChartPoint {
	type weekKey struct {
		year int
		week int
	}
	volume := make(map[weekKey]int)
	for _, l := range logs {
		diffDays := int(math.Floor(now.Sub(l.Date).Hours() / 24))
		if diffDays > trailingWeeks*7 {
			continue
		}
		jan1 := time.Date(l.Date.Year(), time.January, 1, 0, 0, 0, 0, l.Date.Location())
		days := l.Date.Sub(jan1).Hours() / 24
		week := int(math.Ceil((days + float64(jan1.Weekday()) + 1) / 7))
		volume[weekKey{year: l.Date.Year(), week: week}] += l.Sets * l.Reps
	}

	keys := make([]weekKey, 0, len(volume))
	for k := range volume {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].week < keys[j].week
	})
	if len(keys) > trailingWeeks {
		keys = keys[len(keys)-trailingWeeks:]
	}

	points := []ChartPoint{}
	for _, k := range keys {
		points = append(points, ChartPoint{
			Name:  fmt.Sprintf("W%d %d", k.week, k.year),
			Value: volume[k],
		})
	}
	return points
}

// monthlyFrequency counts logs per YYYY-MM month, ascending.
func monthlyFrequency(logs []workouts.WorkoutLog) []ChartPoint {
	counts := make(map[string]int)
	for _, l := range logs {
		counts[l.Date.Format("2006-01")]++
	}
	months := make([]string, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Strings(months)

	points := []ChartPoint{}
	for _, m := range months {
		points = append(points, ChartPoint{Name: m, Value: counts[m]})
	}
	return points
}
