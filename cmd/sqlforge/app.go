package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/coregx/sqlforge/internal/cache"
	"github.com/coregx/sqlforge/internal/config"
	"github.com/coregx/sqlforge/internal/core"
	"github.com/coregx/sqlforge/internal/logger"
	"github.com/coregx/sqlforge/internal/ratelimit"
)

// whereFlags collects repeated -where col=value pairs.
type whereFlags []string

func (w *whereFlags) String() string { return strings.Join(*w, ",") }

func (w *whereFlags) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected col=value, got %q", v)
	}
	*w = append(*w, v)
	return nil
}

type options struct {
	configPath string
	table      string
	columns    string
	where      whereFlags
	order      string
	limit      int
	page       int
	perPage    int
	command    string
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("sqlforge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to the YAML configuration file")
	fs.StringVar(&opts.table, "table", "", "Table to query")
	fs.StringVar(&opts.columns, "columns", "", "Comma separated columns (default *)")
	fs.Var(&opts.where, "where", "Equality filter col=value, repeatable")
	fs.StringVar(&opts.order, "order", "", "Order column, prefix with - for descending")
	fs.IntVar(&opts.limit, "limit", 0, "Maximum rows for select")
	fs.IntVar(&opts.page, "page", 1, "Page number for page")
	fs.IntVar(&opts.perPage, "per-page", core.DefaultPerPage, "Rows per page for page")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: sqlforge [flags] select|count|page")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("exactly one command is required")
	}
	opts.command = fs.Arg(0)
	if opts.table == "" {
		return nil, errors.New("-table is required")
	}
	return opts, nil
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "sqlforge: %v\n", err)
		return 2
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "sqlforge: %v\n", err)
		return 1
	}
	log := logger.New(stderr, cfg.LogFormat, cfg.LogLevel)

	db, err := core.Open(cfg.Driver, cfg.DSN, cfg.DBOptions(log)...)
	if err != nil {
		fmt.Fprintf(stderr, "sqlforge: %v\n", err)
		return 1
	}
	defer func() { _ = db.Close() }()

	conn, closeConn := buildConn(db, cfg, log)
	defer closeConn()

	qb, err := core.NewQueryBuilder(conn)
	if err != nil {
		fmt.Fprintf(stderr, "sqlforge: %v\n", err)
		return 1
	}

	out, err := execute(ctx, qb, opts)
	if err != nil {
		fmt.Fprintf(stderr, "sqlforge: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "sqlforge: %v\n", err)
		return 1
	}
	return 0
}

// buildConn stacks the rate limiter and the cache on top of db.
func buildConn(db *core.DB, cfg *config.Config, log logger.Logger) (core.Conn, func()) {
	var conn core.Conn = db
	closeFn := func() {}

	if cfg.RateLimit.QPS > 0 {
		conn = ratelimit.New(conn, cfg.RateLimit.QPS, cfg.RateLimit.Burst)
	}

	if cfg.Cache.Enabled {
		var client redis.UniversalClient
		if cfg.Cache.RedisAddr != "" {
			rc := redis.NewClient(&redis.Options{
				Addr:     cfg.Cache.RedisAddr,
				Password: cfg.Cache.RedisPassword,
				DB:       cfg.Cache.RedisDB,
			})
			client = rc
			closeFn = func() { _ = rc.Close() }
		}
		conn = cache.New(conn, client, cache.Options{
			Prefix:            cfg.Cache.Prefix,
			TTL:               cfg.Cache.TTL,
			LocalCapacity:     cfg.Cache.LocalCapacity,
			InvalidateOnWrite: cfg.Cache.InvalidateOnWrite,
			Logger:            log,
		})
	}
	return conn, closeFn
}

func execute(ctx context.Context, qb *core.QueryBuilder, opts *options) (interface{}, error) {
	q := qb.Select(splitColumns(opts.columns)...).From(opts.table)
	for _, pair := range opts.where {
		col, raw, _ := strings.Cut(pair, "=")
		value := parseValue(raw)
		q.Where(func(c *core.Cond) { c.Col(strings.TrimSpace(col)).Equal(value) })
	}
	if opts.order != "" {
		if col, ok := strings.CutPrefix(opts.order, "-"); ok {
			q.OrderBy(col, core.Desc)
		} else {
			q.OrderBy(opts.order)
		}
	}

	switch opts.command {
	case "select":
		if opts.limit > 0 {
			q.Limit(opts.limit)
		}
		return q.All(ctx)
	case "count":
		n, err := q.Count(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]int64{"count": n}, nil
	case "page":
		return q.Paginate(ctx, opts.page, opts.perPage)
	default:
		return nil, fmt.Errorf("unknown command %q", opts.command)
	}
}

func splitColumns(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cols = append(cols, p)
		}
	}
	return cols
}

// parseValue binds integers and floats as numbers and everything else as text.
func parseValue(s string) interface{} {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
