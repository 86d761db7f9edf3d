// Package replication migrates one staged channel from the document store
// into the relational warehouse.
package replication

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"yt-harvest/pkg/db"
	"yt-harvest/pkg/domain"
	"yt-harvest/pkg/logging"
	"yt-harvest/pkg/metrics"
)

// DefaultBatchSize is the number of rows committed per transaction.
const DefaultBatchSize = 100

// Source reads staged records back out of the document store.
type Source interface {
	FindChannelByName(ctx context.Context, name string) (*domain.Channel, error)
	FindPlaylists(ctx context.Context, channelID string) ([]domain.Playlist, error)
	FindVideos(ctx context.Context, channelID string) ([]domain.Video, error)
	// FindComments returns every staged comment when videoIDs is nil.
	FindComments(ctx context.Context, videoIDs []string) ([]domain.Comment, error)
}

// CommentScope decides which staged comments travel with a channel.
type CommentScope string

const (
	// CommentScopeAll copies every staged comment, whichever channel it belongs to.
	CommentScopeAll CommentScope = "all"
	// CommentScopeChannel copies only comments on the migrated channel's videos.
	CommentScopeChannel CommentScope = "channel"
)

// Options tune one migration.
type Options struct {
	// CommentScope defaults to CommentScopeAll.
	CommentScope CommentScope
}

// Config wires the replication dependencies.
type Config struct {
	Source Source
	Target db.DBProvider

	// BatchSize defaults to DefaultBatchSize.
	BatchSize int
	Logger    *zerolog.Logger
}

// TableCount is the number of rows read from the source and actually inserted.
// Rows already present in the warehouse are read but not inserted.
type TableCount struct {
	Read     int `json:"read"`
	Inserted int `json:"inserted"`
}

// MigrationReport summarizes one migration.
type MigrationReport struct {
	ChannelID    string        `json:"channel_id"`
	ChannelName  string        `json:"channel_name"`
	CommentScope CommentScope  `json:"comment_scope"`
	Channels     TableCount    `json:"channels"`
	Playlists    TableCount    `json:"playlists"`
	Videos       TableCount    `json:"videos"`
	Comments     TableCount    `json:"comments"`
	Duration     time.Duration `json:"duration"`
}

// Replicator copies staged channels into the relational store.
type Replicator struct {
	source    Source
	target    db.DBProvider
	batchSize int
	log       zerolog.Logger
}

func NewReplicator(cfg Config) (*Replicator, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("document source is required")
	}
	if cfg.Target == nil {
		return nil, fmt.Errorf("relational target is required")
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	log := logging.Component("replication")
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	return &Replicator{
		source:    cfg.Source,
		target:    cfg.Target,
		batchSize: batch,
		log:       log,
	}, nil
}

// Migrate copies the channel with the given display name, then its playlists,
// videos and comments, in that order. Each table is written in transactions of
// BatchSize rows with conflict-skip on the primary key, so running Migrate
// again inserts nothing. A failure leaves earlier tables and earlier batches
// committed; the returned report covers what was written.
func (r *Replicator) Migrate(ctx context.Context, channelName string, opts Options) (*MigrationReport, error) {
	started := time.Now()
	scope := opts.CommentScope
	if scope == "" {
		scope = CommentScopeAll
	}
	if scope != CommentScopeAll && scope != CommentScopeChannel {
		return nil, fmt.Errorf("unknown comment scope %q", scope)
	}

	conn := r.target.DB()
	if conn == nil {
		return nil, fmt.Errorf("relational DB not connected")
	}
	if err := EnsureSchema(ctx, conn); err != nil {
		return nil, err
	}

	channel, err := r.source.FindChannelByName(ctx, channelName)
	if err != nil {
		return nil, fmt.Errorf("read channel %q: %w", channelName, err)
	}
	report := &MigrationReport{ChannelID: channel.ID, ChannelName: channel.Name, CommentScope: scope}
	log := r.log.With().Str("channel_id", channel.ID).Str("channel_name", channel.Name).Logger()

	playlists, err := r.source.FindPlaylists(ctx, channel.ID)
	if err != nil {
		return nil, fmt.Errorf("read playlists: %w", err)
	}
	videos, err := r.source.FindVideos(ctx, channel.ID)
	if err != nil {
		return nil, fmt.Errorf("read videos: %w", err)
	}

	var videoIDs []string
	if scope == CommentScopeChannel {
		videoIDs = make([]string, 0, len(videos))
		for _, v := range videos {
			videoIDs = append(videoIDs, v.ID)
		}
	}
	comments, err := r.source.FindComments(ctx, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("read comments: %w", err)
	}
	log.Info().
		Int("playlists", len(playlists)).
		Int("videos", len(videos)).
		Int("comments", len(comments)).
		Str("comment_scope", string(scope)).
		Msg("loaded staged records")

	report.Channels.Read = 1
	report.Channels.Inserted, err = insertBatches(ctx, conn, r.batchSize, insertChannel, []domain.Channel{*channel}, channelArgs)
	if err != nil {
		return report, r.tableFailed(log, "channels", err)
	}
	r.tableDone(log, "channels", report.Channels)

	report.Playlists.Read = len(playlists)
	report.Playlists.Inserted, err = insertBatches(ctx, conn, r.batchSize, insertPlaylist, playlists, playlistArgs)
	if err != nil {
		return report, r.tableFailed(log, "playlists", err)
	}
	r.tableDone(log, "playlists", report.Playlists)

	report.Videos.Read = len(videos)
	report.Videos.Inserted, err = insertBatches(ctx, conn, r.batchSize, insertVideo, videos, videoArgs)
	if err != nil {
		return report, r.tableFailed(log, "videos", err)
	}
	r.tableDone(log, "videos", report.Videos)

	report.Comments.Read = len(comments)
	report.Comments.Inserted, err = insertBatches(ctx, conn, r.batchSize, insertComment, comments, commentArgs)
	if err != nil {
		return report, r.tableFailed(log, "comments", err)
	}
	r.tableDone(log, "comments", report.Comments)

	report.Duration = time.Since(started)
	log.Info().Dur("duration", report.Duration).Msg("migration complete")
	return report, nil
}

// EnsureSchema creates the four warehouse tables if they do not exist.
func EnsureSchema(ctx context.Context, conn *sql.DB) error {
	for _, t := range schema {
		if _, err := conn.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("create %s table: %w", t.table, err)
		}
	}
	return nil
}

func (r *Replicator) tableDone(log zerolog.Logger, table string, c TableCount) {
	metrics.MigratedRows.WithLabelValues(table).Add(float64(c.Inserted))
	log.Info().Str("table", table).Int("read", c.Read).Int("inserted", c.Inserted).Msg("table migrated")
}

func (r *Replicator) tableFailed(log zerolog.Logger, table string, err error) error {
	log.Error().Err(err).Str("table", table).Msg("table migration failed")
	return fmt.Errorf("migrate %s: %w", table, err)
}

// insertBatches runs query once per row, committing every batchSize rows.
// It returns the number of rows the database reports as inserted.
func insertBatches[T any](ctx context.Context, conn *sql.DB, batchSize int, query string, rows []T, args func(T) ([]any, error)) (int, error) {
	inserted := 0
	for start := 0; start < len(rows); start += batchSize {
		end := calculateBatchEnd(start, batchSize, len(rows))
		n, err := insertTx(ctx, conn, query, rows[start:end], args)
		if err != nil {
			return inserted, fmt.Errorf("batch [%d:%d]: %w", start, end, err)
		}
		inserted += n
	}
	return inserted, nil
}

// calculateBatchEnd calculates the end index for a batch, ensuring it doesn't exceed the total length.
func calculateBatchEnd(start, batchSize, totalLen int) int {
	end := start + batchSize
	if end > totalLen {
		return totalLen
	}
	return end
}

// insertTx inserts a batch within a transaction.
func insertTx[T any](ctx context.Context, conn *sql.DB, query string, batch []T, args func(T) ([]any, error)) (int, error) {
	tx, err := conn.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, row := range batch {
		values, err := args(row)
		if err != nil {
			return 0, err
		}
		res, err := stmt.ExecContext(ctx, values...)
		if err != nil {
			return 0, fmt.Errorf("insert: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func channelArgs(c domain.Channel) ([]any, error) {
	return []any{c.Name, c.ID, c.Subscribers, c.Views, c.TotalVideos, c.Description, c.UploadsPlaylistID}, nil
}

func playlistArgs(p domain.Playlist) ([]any, error) {
	return []any{p.ID, p.Title, p.ChannelID, p.ChannelName, nullTime(p.PublishedAt), p.VideoCount}, nil
}

func videoArgs(v domain.Video) ([]any, error) {
	tags, err := EncodeTags(v.Tags)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", v.ID, err)
	}
	return []any{
		v.ChannelName, v.ChannelID, v.ID, v.Title, tags, v.Thumbnail, nullString(v.Description),
		nullTime(v.PublishedAt), v.Duration,
		nullInt(v.Views), nullInt(v.Likes), nullInt(v.Comments), nullInt(v.FavoriteCount),
		v.Definition, v.CaptionStatus,
	}, nil
}

func commentArgs(c domain.Comment) ([]any, error) {
	return []any{c.ID, c.VideoID, c.Text, c.Author, nullTime(c.PublishedAt)}, nil
}
