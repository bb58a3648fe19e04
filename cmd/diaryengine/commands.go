package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/eringen/diaryengine"
	"github.com/eringen/diaryengine/cms"
	"github.com/eringen/diaryengine/markdown"
	"github.com/eringen/diaryengine/query"
	"github.com/eringen/diaryengine/readership"
)

// Global is shared by every subcommand.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command and its global flags.
type CLI struct {
	Config   string           `short:"c" help:"Configuration file path" type:"path"`
	LogLevel string           `help:"Log level (debug, info, warn, error), overrides the config file"`
	Version  kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve  ServeCmd  `cmd:"" default:"1" help:"Run the diary reader web server"`
	Render RenderCmd `cmd:"" help:"Print the HTML of one or more diaries"`
	Export ExportCmd `cmd:"" help:"Walk the whole feed and write it as JSON lines"`
	Warm   WarmCmd   `cmd:"" help:"Fetch diaries by id into the local snapshot"`
	Prune  PruneCmd  `cmd:"" help:"Delete snapshot entries not fetched recently and old reads"`
	Stats  StatsCmd  `cmd:"" help:"Print diary readership as JSON"`

	cfg    diaryengine.SiteConfig
	logger *slog.Logger
}

// AfterApply loads configuration and sets up logging once flags are parsed.
func (c *CLI) AfterApply() error {
	cfg, err := diaryengine.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	c.cfg = cfg
	c.logger = diaryengine.NewLogger(cfg.LogLevel, os.Stderr)
	slog.SetDefault(c.logger)
	return nil
}

func (c *CLI) client() (*cms.Client, error) {
	return cms.New(cms.Config{
		BaseURL:       c.cfg.API.BaseURL,
		Timeout:       c.cfg.API.Timeout,
		UserAgent:     "diaryengine/" + version,
		RatePerSecond: c.cfg.API.RatePerSecond,
		Burst:         c.cfg.API.Burst,
	}, c.logger)
}

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr            string        `help:"Listen address, overrides the config file"`
	ShutdownTimeout time.Duration `help:"Grace period for in-flight requests" default:"15s"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg := root.cfg
	if s.Addr != "" {
		cfg.Addr = s.Addr
	}
	app := diaryengine.New(cfg, diaryengine.DefaultViews(), diaryengine.WithLogger(g.Logger))
	defer app.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		g.Logger.Info("shutdown signal received")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer stopCancel()
	if err := app.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errChan
}

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	IDs []string `arg:"" name:"id" help:"Diary ids to render"`
}

func (r *RenderCmd) Run(g *Global, root *CLI) error {
	client, err := root.client()
	if err != nil {
		return err
	}
	ctx := context.Background()
	for _, raw := range r.IDs {
		d, err := client.FetchContentByID(ctx, raw)
		if err != nil {
			return fmt.Errorf("render %s: %w", raw, err)
		}
		fmt.Fprintf(os.Stdout, "<!-- diary %s: %s -->\n%s\n", d.ID, d.Meta.Title, markdown.Render(*d))
	}
	return nil
}

// ExportCmd implements the 'export' command.
type ExportCmd struct {
	Output   string `short:"o" help:"Output file, stdout when empty" type:"path"`
	PageSize int    `help:"Entries per request" default:"0"`
}

type exportLine struct {
	cms.DiaryContent
	HTML string `json:"html"`
}

func (e *ExportCmd) Run(g *Global, root *CLI) error {
	client, err := root.client()
	if err != nil {
		return err
	}
	var out io.Writer = os.Stdout
	if e.Output != "" {
		f, err := os.Create(e.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	limit := e.PageSize
	if limit <= 0 {
		limit = root.cfg.API.PageSize
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	n, err := exportFeed(ctx, client, limit, out, g.Logger)
	g.Logger.Info("export finished", "entries", n)
	return err
}

// exportFeed drives the feed through a sentinel the same way the browser
// does, writing each entry once its page arrives.
func exportFeed(ctx context.Context, api cms.API, limit int, out io.Writer, logger *slog.Logger) (int, error) {
	feed := query.NewFeed(api, limit)
	sentinel := query.NewSentinel(ctx, feed, query.DefaultDebounce)
	defer sentinel.Close()

	enc := json.NewEncoder(out)
	written := 0
	for feed.HasNextPage() {
		sentinel.Reveal()
		select {
		case err := <-sentinel.Results():
			if err != nil {
				return written, err
			}
		case <-ctx.Done():
			return written, ctx.Err()
		}
		items := query.FeedItems(feed.Pages())
		for _, d := range items[written:] {
			if err := enc.Encode(exportLine{DiaryContent: d, HTML: markdown.Render(d)}); err != nil {
				return written, err
			}
			written++
		}
		logger.Debug("exported page", "pages", len(feed.Pages()), "entries", written)
	}
	return written, nil
}

// WarmCmd implements the 'warm' command.
type WarmCmd struct {
	IDs []int64 `arg:"" name:"id" help:"Diary ids to fetch"`
}

func (w *WarmCmd) Run(g *Global, root *CLI) error {
	client, err := root.client()
	if err != nil {
		return err
	}
	store, err := diaryengine.NewStore(root.cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	cache := diaryengine.NewDiaryCache(client, store, root.cfg, g.Logger, nil)
	n, err := cache.Warm(context.Background(), w.IDs...)
	if err != nil {
		return err
	}
	if n < len(w.IDs) {
		g.Logger.Warn("some ids were not found", "requested", len(w.IDs), "found", n)
	}
	fmt.Fprintf(os.Stdout, "saved %d of %d diaries\n", n, len(w.IDs))
	return nil
}

// PruneCmd implements the 'prune' command.
type PruneCmd struct {
	OlderThan time.Duration `help:"Delete entries last fetched before this long ago" default:"720h"`
}

func (p *PruneCmd) Run(g *Global, root *CLI) error {
	if p.OlderThan <= 0 {
		return errors.New("--older-than must be positive")
	}
	store, err := diaryengine.NewStore(root.cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	cutoff := time.Now().Add(-p.OlderThan)
	n, err := store.PruneBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	reads, err := readership.NewStore(store.DB())
	if err != nil {
		return err
	}
	r, err := reads.PruneBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "pruned %d diaries and %d reads\n", n, r)
	return nil
}

// StatsCmd implements the 'stats' command.
type StatsCmd struct {
	Since time.Duration `help:"Count reads from this long ago" default:"720h"`
	Top   int           `help:"Number of most read diaries to list" default:"10"`
}

func (s *StatsCmd) Run(g *Global, root *CLI) error {
	store, err := diaryengine.NewStore(root.cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	reads, err := readership.NewStore(store.DB())
	if err != nil {
		return err
	}
	sum, err := reads.Summarize(context.Background(), time.Now().Add(-s.Since), s.Top)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}
