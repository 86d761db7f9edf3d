// Command ytharvest harvests YouTube channel metadata into MongoDB, migrates
// channels into a relational warehouse and runs the dashboard queries.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"yt-harvest/pkg/analytics"
	"yt-harvest/pkg/app"
	"yt-harvest/pkg/config"
	"yt-harvest/pkg/db"
	"yt-harvest/pkg/harvest"
	"yt-harvest/pkg/logging"
	"yt-harvest/pkg/replication"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usage = `usage: ytharvest <command> [flags] [argument]

commands:
  harvest <channel-id>    stage a channel in MongoDB (no-op if already staged)
  refresh <channel-id>    drop a staged channel and harvest it again
  stale <channel-id>      list recent uploads that are not staged yet
  channels                list staged channel names
  migrate <channel-name>  copy a staged channel into the SQL warehouse
  query <name>            run a dashboard query against the warehouse

Run "ytharvest <command> -h" for the flags of a command.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options are the flags shared by every command. Empty values keep the
// environment configuration.
type options struct {
	apiKey   string
	mongoURI string
	mongoDB  string
	sqlDSN   string
	supabase string
	redisURL string
	logLevel string
}

func (o *options) register(fs *flag.FlagSet) {
	fs.StringVar(&o.apiKey, "api-key", "", "YouTube Data API key (overrides YTH_API_KEY)")
	fs.StringVar(&o.mongoURI, "mongo-uri", "", "MongoDB connection string (overrides YTH_MONGO_URI)")
	fs.StringVar(&o.mongoDB, "db", "", "MongoDB database name (overrides YTH_MONGO_DB)")
	fs.StringVar(&o.sqlDSN, "sql-dsn", "", "Warehouse DSN: postgres://..., sqlite://<path> or sqlite::memory: (overrides YTH_SQL_DSN)")
	fs.StringVar(&o.supabase, "supabase-url", "", "Supabase project URL used when no DSN is given (overrides YTH_SUPABASE_URL)")
	fs.StringVar(&o.redisURL, "redis-url", "", "Redis URL for the query cache (overrides YTH_REDIS_URL)")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level (overrides YTH_LOG_LEVEL)")
}

func (o *options) config() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	override(&cfg.APIKey, o.apiKey)
	override(&cfg.MongoURI, o.mongoURI)
	override(&cfg.MongoDatabase, o.mongoDB)
	override(&cfg.SQLDSN, o.sqlDSN)
	if o.supabase != "" {
		cfg.SupabaseURL = o.supabase
		if o.sqlDSN == "" && os.Getenv("YTH_SQL_DSN") == "" {
			cfg.SQLDSN = ""
		}
	}
	override(&cfg.RedisURL, o.redisURL)
	override(&cfg.LogLevel, o.logLevel)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// command is one subcommand. exec returns the value printed as JSON on success.
type command struct {
	arg   string
	flags func(fs *flag.FlagSet) func() any
	exec  func(ctx context.Context, cfg *config.Config, arg string, extra any, stderr io.Writer) (any, error)
}

var commands = map[string]command{
	"harvest":  {arg: "channel-id", exec: harvestCmd},
	"refresh":  {arg: "channel-id", exec: refreshCmd},
	"stale":    {arg: "channel-id", exec: staleCmd},
	"channels": {exec: channelsCmd},
	"migrate": {
		arg: "channel-name",
		flags: func(fs *flag.FlagSet) func() any {
			scope := fs.String("scope-comments", string(replication.CommentScopeAll), "Comments to copy: all or channel")
			return func() any { return replication.CommentScope(*scope) }
		},
		exec: migrateCmd,
	},
	"query": {
		arg: "name",
		flags: func(fs *flag.FlagSet) func() any {
			year := fs.Int("year", 0, "Year for the published-in-year query (default: current year)")
			return func() any { return *year }
		},
		exec: queryCmd,
	},
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}
	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", name, usage)
		return exitUsage
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	opts.register(fs)
	extra := func() any { return nil }
	if cmd.flags != nil {
		extra = cmd.flags(fs)
	}
	if err := fs.Parse(args[1:]); err != nil {
		return exitUsage
	}

	var arg string
	if cmd.arg != "" {
		if fs.NArg() != 1 {
			fmt.Fprintf(stderr, "usage: ytharvest %s [flags] <%s>\n", name, cmd.arg)
			return exitUsage
		}
		arg = fs.Arg(0)
	} else if fs.NArg() != 0 {
		fmt.Fprintf(stderr, "usage: ytharvest %s [flags]\n", name)
		return exitUsage
	}

	cfg, err := opts.config()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitError
	}
	log := logging.InitWriter(stderr, cfg.LogLevel, "ytharvest")

	start := time.Now()
	out, err := cmd.exec(ctx, cfg, arg, extra(), stderr)
	if err != nil {
		log.Error().Err(err).Str("command", name).Dur("duration", time.Since(start)).Msg("command failed")
		return exitError
	}
	log.Debug().Str("command", name).Dur("duration", time.Since(start)).Msg("command done")

	if out != nil {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(stderr, "write output: %v\n", err)
			return exitError
		}
	}
	return exitOK
}

// withMongo connects the staging store for the duration of fn.
func withMongo(ctx context.Context, cfg *config.Config, fn func(*db.Client) (any, error)) (any, error) {
	client, err := app.ConnectMongo(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Close(closeCtx)
	}()
	return fn(client)
}

func withHarvester(ctx context.Context, cfg *config.Config, fn func(*harvest.Service) (any, error)) (any, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	return withMongo(ctx, cfg, func(store *db.Client) (any, error) {
		svc, err := app.NewHarvester(cfg, store)
		if err != nil {
			return nil, err
		}
		return fn(svc)
	})
}

func harvestCmd(ctx context.Context, cfg *config.Config, channelID string, _ any, stderr io.Writer) (any, error) {
	return withHarvester(ctx, cfg, func(svc *harvest.Service) (any, error) {
		report, err := svc.Harvest(ctx, channelID)
		if err != nil {
			return nil, err
		}
		if report.Status == harvest.StatusExists {
			fmt.Fprintf(stderr, "warning: channel %s already exists; use \"ytharvest refresh %s\" to re-harvest\n", channelID, channelID)
		}
		return report, nil
	})
}

func refreshCmd(ctx context.Context, cfg *config.Config, channelID string, _ any, _ io.Writer) (any, error) {
	return withHarvester(ctx, cfg, func(svc *harvest.Service) (any, error) {
		return svc.Refresh(ctx, channelID)
	})
}

func staleCmd(ctx context.Context, cfg *config.Config, channelID string, _ any, _ io.Writer) (any, error) {
	return withHarvester(ctx, cfg, func(svc *harvest.Service) (any, error) {
		return svc.Stale(ctx, channelID)
	})
}

func channelsCmd(ctx context.Context, cfg *config.Config, _ string, _ any, _ io.Writer) (any, error) {
	return withMongo(ctx, cfg, func(store *db.Client) (any, error) {
		return store.ChannelNames(ctx)
	})
}

func migrateCmd(ctx context.Context, cfg *config.Config, channelName string, extra any, _ io.Writer) (any, error) {
	scope := extra.(replication.CommentScope)
	return withMongo(ctx, cfg, func(store *db.Client) (any, error) {
		warehouse, err := app.ConnectWarehouse(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer warehouse.Close()

		migrator, err := app.NewReplicator(store, warehouse)
		if err != nil {
			return nil, err
		}
		report, err := migrator.Migrate(ctx, channelName, replication.Options{CommentScope: scope})
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, fmt.Errorf("channel %q is not staged: %w", channelName, err)
			}
			return nil, err
		}

		_, c := app.NewAnalytics(ctx, cfg, warehouse)
		defer c.Close()
		if err := c.InvalidateAll(ctx); err != nil {
			logging.Logger.Warn().Err(err).Msg("query cache not invalidated")
		}
		return report, nil
	})
}

func queryCmd(ctx context.Context, cfg *config.Config, name string, extra any, _ io.Writer) (any, error) {
	if !slices.Contains(analytics.Names, name) {
		return nil, fmt.Errorf("%w: %s (known: %v)", analytics.ErrUnknownQuery, name, analytics.Names)
	}
	year := extra.(int)
	if year != 0 && (year < 1970 || year > 9999) {
		return nil, fmt.Errorf("invalid year %d", year)
	}

	warehouse, err := app.ConnectWarehouse(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer warehouse.Close()

	svc, c := app.NewAnalytics(ctx, cfg, warehouse)
	defer c.Close()
	return svc.Run(ctx, name, analytics.Params{Year: year})
}
