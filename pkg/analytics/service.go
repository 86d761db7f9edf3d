// Package analytics runs the read-only dashboard queries against the
// relational warehouse.
package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"yt-harvest/pkg/db"
	"yt-harvest/pkg/logging"
	"yt-harvest/pkg/metrics"
)

// ErrUnknownQuery is returned by Run for a name not in Names.
var ErrUnknownQuery = errors.New("unknown query")

// Cache is the cache-aside store. *cache.Cache satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, v any) error
}

// Service answers dashboard queries.
type Service struct {
	db    db.DBProvider
	cache Cache
	log   zerolog.Logger
	now   func() time.Time
}

// NewService builds a Service. cache may be nil.
func NewService(provider db.DBProvider, cache Cache) *Service {
	return &Service{
		db:    provider,
		cache: cache,
		log:   logging.Component("analytics"),
		now:   time.Now,
	}
}

// Params carries per-query arguments.
type Params struct {
	// Year is used by QueryPublishedInYear; 0 means the current year.
	Year int
}

// Run executes the named query and returns its typed rows.
func (s *Service) Run(ctx context.Context, name string, p Params) (any, error) {
	switch name {
	case QueryVideosWithChannel:
		return cached(ctx, s, name, s.VideosWithChannel)
	case QueryChannelsByVideoCount:
		return cached(ctx, s, name, s.ChannelsByVideoCount)
	case QueryTopViewed:
		return cached(ctx, s, name, s.TopViewed)
	case QueryCommentsPerVideo:
		return cached(ctx, s, name, s.CommentsPerVideo)
	case QueryTopLiked:
		return cached(ctx, s, name, s.TopLiked)
	case QueryLikesPerChannel:
		return cached(ctx, s, name, s.LikesPerChannel)
	case QueryViewsPerChannel:
		return cached(ctx, s, name, s.ViewsPerChannel)
	case QueryPublishedInYear:
		year := p.Year
		if year == 0 {
			year = s.now().UTC().Year()
		}
		return cached(ctx, s, name+":"+strconv.Itoa(year), func(ctx context.Context) ([]PublishedVideo, error) {
			return s.PublishedInYear(ctx, year)
		})
	case QueryAverageDuration:
		return cached(ctx, s, name, s.AverageDurationPerChannel)
	case QueryTopCommented:
		return cached(ctx, s, name, s.TopCommented)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuery, name)
	}
}

// cached serves key from the cache when present, otherwise runs fetch and
// stores the result. Cache failures are logged and never fail the query.
func cached[T any](ctx context.Context, s *Service, key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if s.cache != nil {
		data, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		if data != nil {
			var rows []T
			if err := json.Unmarshal(data, &rows); err == nil {
				metrics.CacheHits.Inc()
				return rows, nil
			}
		}
		metrics.CacheMisses.Inc()
	}

	rows, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, rows); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return rows, nil
}

func (s *Service) conn() (*sql.DB, error) {
	if s.db == nil || s.db.DB() == nil {
		return nil, fmt.Errorf("relational DB not connected")
	}
	return s.db.DB(), nil
}

// query runs q and scans every row with scan.
func query[T any](ctx context.Context, s *Service, q string, scan func(*sql.Rows) (T, error), args ...any) ([]T, error) {
	conn, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		row, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// VideosWithChannel lists every video with its channel name.
func (s *Service) VideosWithChannel(ctx context.Context) ([]VideoChannel, error) {
	return query(ctx, s, sqlVideosWithChannel, func(r *sql.Rows) (VideoChannel, error) {
		var v VideoChannel
		var title, channel sql.NullString
		err := r.Scan(&title, &channel)
		v.Title, v.ChannelName = title.String, channel.String
		return v, err
	})
}

// ChannelsByVideoCount ranks channels by their reported video count.
func (s *Service) ChannelsByVideoCount(ctx context.Context) ([]ChannelVideoCount, error) {
	return query(ctx, s, sqlChannelsByVideoCount, func(r *sql.Rows) (ChannelVideoCount, error) {
		var c ChannelVideoCount
		var name sql.NullString
		var total sql.NullInt64
		err := r.Scan(&name, &total)
		c.ChannelName, c.TotalVideos = name.String, total.Int64
		return c, err
	})
}

func scanVideoMetric(r *sql.Rows) (VideoMetric, error) {
	var m VideoMetric
	var title, channel sql.NullString
	err := r.Scan(&title, &channel, &m.Value)
	m.Title, m.ChannelName = title.String, channel.String
	return m, err
}

// TopViewed returns the most viewed videos.
func (s *Service) TopViewed(ctx context.Context) ([]VideoMetric, error) {
	return query(ctx, s, sqlTopViewed, scanVideoMetric, TopLimit)
}

// TopLiked returns the most liked videos.
func (s *Service) TopLiked(ctx context.Context) ([]VideoMetric, error) {
	return query(ctx, s, sqlTopLiked, scanVideoMetric, TopLimit)
}

// TopCommented returns the videos with the highest reported comment counts.
func (s *Service) TopCommented(ctx context.Context) ([]VideoMetric, error) {
	return query(ctx, s, sqlTopCommented, scanVideoMetric, TopLimit)
}

// CommentsPerVideo lists every migrated comment with its video id.
func (s *Service) CommentsPerVideo(ctx context.Context) ([]VideoComment, error) {
	return query(ctx, s, sqlCommentsPerVideo, func(r *sql.Rows) (VideoComment, error) {
		var c VideoComment
		var id, text sql.NullString
		err := r.Scan(&id, &text)
		c.VideoID, c.Text = id.String, text.String
		return c, err
	})
}

func scanChannelMetric(r *sql.Rows) (ChannelMetric, error) {
	var m ChannelMetric
	var name sql.NullString
	var value sql.NullInt64
	err := r.Scan(&name, &value)
	m.ChannelName, m.Value = name.String, value.Int64
	return m, err
}

// LikesPerChannel sums video likes per channel.
func (s *Service) LikesPerChannel(ctx context.Context) ([]ChannelMetric, error) {
	return query(ctx, s, sqlLikesPerChannel, scanChannelMetric)
}

// ViewsPerChannel lists each channel's reported view count.
func (s *Service) ViewsPerChannel(ctx context.Context) ([]ChannelMetric, error) {
	return query(ctx, s, sqlViewsPerChannel, scanChannelMetric)
}

// PublishedInYear lists videos published during the given UTC calendar year.
func (s *Service) PublishedInYear(ctx context.Context, year int) ([]PublishedVideo, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	return query(ctx, s, sqlPublishedBetween, func(r *sql.Rows) (PublishedVideo, error) {
		var v PublishedVideo
		var title, channel sql.NullString
		var published sql.NullTime
		err := r.Scan(&title, &channel, &published)
		v.Title, v.ChannelName, v.PublishedAt = title.String, channel.String, published.Time.UTC()
		return v, err
	}, from, to)
}

// AverageDurationPerChannel averages video length per channel in hours,
// rounded to two decimals.
func (s *Service) AverageDurationPerChannel(ctx context.Context) ([]ChannelDuration, error) {
	type pair struct{ channel, duration string }
	pairs, err := query(ctx, s, sqlDurations, func(r *sql.Rows) (pair, error) {
		var name, dur sql.NullString
		err := r.Scan(&name, &dur)
		return pair{name.String, dur.String}, err
	})
	if err != nil {
		return nil, err
	}

	type acc struct {
		total time.Duration
		n     int
	}
	byChannel := make(map[string]*acc)
	for _, p := range pairs {
		a, ok := byChannel[p.channel]
		if !ok {
			a = &acc{}
			byChannel[p.channel] = a
		}
		d, err := ParseISODuration(p.duration)
		if err != nil {
			s.log.Debug().Str("channel_name", p.channel).Str("duration", p.duration).Msg("skipping unparsable duration")
			continue
		}
		a.total += d
		a.n++
	}

	out := make([]ChannelDuration, 0, len(byChannel))
	for name, a := range byChannel {
		cd := ChannelDuration{ChannelName: name, Videos: a.n}
		if a.n > 0 {
			hours := a.total.Hours() / float64(a.n)
			cd.AverageHours = math.Round(hours*100) / 100
		}
		out = append(out, cd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelName < out[j].ChannelName })
	return out, nil
}
