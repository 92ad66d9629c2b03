package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/V4T54L/logmon/internal/adapter/pii"
	"github.com/V4T54L/logmon/internal/adapter/stream"
	"github.com/V4T54L/logmon/internal/domain"
	"github.com/V4T54L/logmon/internal/pkg/logger"
	"github.com/V4T54L/logmon/internal/usecase"
)

var (
	tailLevel  string
	tailModule string
	tailSearch string
	tailExport string
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Stream the feed to the terminal",
	Long: `Stream the feed to the terminal with level colouring. Session completions are
announced as they happen and a session summary is printed on exit.

Examples:
  logmon tail --level ERROR
  logmon tail --session session-1234 --export json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := parseFilter(tailLevel, tailModule, tailSearch)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		// Keep stdout for events.
		log := logger.NewWithWriter(os.Stderr, cfg.LogLevel)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		transport := stream.NewHTTPTransport(cfg.FeedURL, nil)
		exporter := usecase.NewExportService(pii.NewRedactor(cfg.RedactFields, log), log, nil)
		monitor := usecase.NewMonitor(monitorConfig(cfg, false), transport, exporter, log, nil)

		out := os.Stdout
		monitor.Subscribe(newTailPrinter(out, filter))
		monitor.Start(ctx, cfg.SessionScope)

		<-ctx.Done()
		monitor.Stop()

		fmt.Fprintln(out)
		renderSummary(out, monitor.Sessions())

		if tailExport != "" {
			path, err := monitor.ExportFile(tailExport, filter)
			if err != nil {
				return fmt.Errorf("failed to export logs: %w", err)
			}
			fmt.Fprintf(out, "exported %d logs to %s\n", len(monitor.Logs(filter)), path)
		}
		return nil
	},
}

func init() {
	tailCmd.Flags().StringVar(&tailLevel, "level", "", "Only show events with this level")
	tailCmd.Flags().StringVar(&tailModule, "module", "", "Only show events from this module")
	tailCmd.Flags().StringVarP(&tailSearch, "search", "q", "", "Only show events containing this text")
	tailCmd.Flags().StringVar(&tailExport, "export", "", "Export the buffered events on exit (json, jsonl, yaml, md)")
}

func parseFilter(level, module, search string) (domain.Filter, error) {
	filter := domain.Filter{Module: module, SearchText: search}
	if level != "" {
		filter.Level = domain.Level(strings.ToUpper(level))
		if !filter.Level.Valid() {
			return domain.Filter{}, fmt.Errorf("invalid level %q", level)
		}
	}
	return filter, nil
}

// tailPrinter writes every newly buffered event that matches its filter, and
// a line whenever a session reaches a terminal status.
type tailPrinter struct {
	mu       sync.Mutex
	w        io.Writer
	filter   domain.Filter
	lastSeq  uint64
	finished map[string]bool
}

func newTailPrinter(w io.Writer, filter domain.Filter) *tailPrinter {
	return &tailPrinter{w: w, filter: filter, finished: make(map[string]bool)}
}

func (p *tailPrinter) OnSnapshot(snap domain.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fresh := snap.Since(p.lastSeq)
	p.lastSeq = snap.Appended

	for _, e := range p.filter.Apply(fresh) {
		fmt.Fprintln(p.w, renderEvent(e))
	}

	for _, s := range snap.Sessions {
		if s.Status.Terminal() && !p.finished[s.SessionID] {
			p.finished[s.SessionID] = true
			fmt.Fprintln(p.w, renderSessionEnd(s))
		}
	}
}
