package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/edviz/edviz/pkg/api"
	"github.com/edviz/edviz/pkg/config"
	"github.com/edviz/edviz/pkg/layout"
	"github.com/edviz/edviz/pkg/logging"
	"github.com/edviz/edviz/pkg/model"
	"github.com/edviz/edviz/pkg/output"
	"github.com/edviz/edviz/pkg/render"
	"github.com/edviz/edviz/pkg/watcher"
	"github.com/edviz/edviz/pkg/web"
)

func main() {
	f := pflag.NewFlagSet("edviz", pflag.ExitOnError)
	f.String("api-url", "http://localhost:8000", "Base URL of the conversion service")
	f.Bool("web", false, "Start the web UI instead of the console report")
	f.Int("port", 8080, "Port for the web UI (only used with --web)")
	f.Bool("watch", false, "Watch the export directory and push history updates")
	f.Bool("open", true, "Open the browser when the web UI starts")
	f.String("export-dir", "exports", "Directory for exported diagrams")
	f.Int("timeout", 30, "Conversion service request timeout in seconds")
	f.Int("debounce", 300, "Search debounce in milliseconds")
	f.Int("cooldown", 100, "Maximum force layout iterations")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase log verbosity (repeatable)")
	if err := f.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	applyVerbosity(cfg)

	if cfg.WebMode {
		runWeb(cfg)
		return
	}
	runConsole(cfg, f.Args())
}

// applyVerbosity maps the verbosity string (or repeated -v flags) onto the
// slog level.
func applyVerbosity(cfg *config.Config) {
	switch strings.ToLower(cfg.Verbosity) {
	case "trace":
		logging.SetLevel(slog.LevelDebug - 4)
		return
	case "debug":
		logging.SetLevel(slog.LevelDebug)
		return
	case "info":
		logging.SetLevel(slog.LevelInfo)
		return
	case "warn":
		logging.SetLevel(slog.LevelWarn)
		return
	case "error":
		logging.SetLevel(slog.LevelError)
		return
	}

	switch {
	case cfg.VerboseCnt >= 2:
		logging.SetLevel(slog.LevelDebug - 4)
	case cfg.VerboseCnt == 1:
		logging.SetLevel(slog.LevelDebug)
	}
}

// runConsole loads a graph JSON file, prints a colorized report, and writes
// a rendered PNG next to the exports.
func runConsole(cfg *config.Config, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: edviz [flags] <graph.json>")
		fmt.Fprintln(os.Stderr, "       edviz --web")
		os.Exit(2)
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var g model.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid graph file: %v\n", err)
		os.Exit(1)
	}

	output.PrintGraphReport(path, g)

	if len(g.Nodes) == 0 {
		return
	}

	engine := layout.NewForceEngine()
	lopts := layout.DefaultOptions()
	if cfg.Cooldown > 0 {
		lopts.Cooldown = cfg.Cooldown
	}
	positions := engine.Layout(g, lopts)

	renderer, err := render.New(render.DefaultOptions())
	if err != nil {
		logging.Fatal("failed to create renderer", "error", err)
	}

	if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
		logging.Fatal("failed to create export directory", "path", cfg.ExportDir, "error", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".png"
	out := filepath.Join(cfg.ExportDir, name)
	file, err := os.Create(out)
	if err != nil {
		logging.Fatal("failed to create output file", "path", out, "error", err)
	}
	defer file.Close()

	if err := renderer.RenderPNG(g, positions, file); err != nil {
		logging.Fatal("failed to render graph", "error", err)
	}
	fmt.Printf("Rendered layout written to %s\n", out)
}

func runWeb(cfg *config.Config) {
	client := api.NewClient(cfg.APIURL, cfg.RequestTimeout())
	server := web.NewServer(client, web.Options{
		ExportDir:      cfg.ExportDir,
		SearchDebounce: cfg.SearchDebounce(),
		Cooldown:       cfg.Cooldown,
	})

	url := fmt.Sprintf("http://localhost:%d", cfg.Port)
	ctx := context.Background()

	go func() {
		if err := server.Start(cfg.Port); err != nil {
			logging.Fatal("web server failed", "error", err)
		}
	}()

	if cfg.Watch {
		startExportWatch(ctx, cfg.ExportDir, server)
	}

	// Warm the listing so the first page load has data.
	go server.Listing().Refresh(ctx)

	// Give the listener a moment before pointing a browser at it.
	time.Sleep(500 * time.Millisecond)
	if cfg.OpenBrowser {
		logging.Info("opening browser", "url", url)
		openBrowser(url)
	}

	select {}
}

// startExportWatch pushes debounced export-directory changes to history
// subscribers.
func startExportWatch(ctx context.Context, dir string, server *web.Server) {
	ew, err := watcher.NewExportWatcher(dir)
	if err != nil {
		logging.Warn("export watching disabled", "error", err)
		return
	}
	if err := ew.Start(ctx); err != nil {
		logging.Warn("export watching disabled", "error", err)
		return
	}

	debouncer := watcher.NewDebouncer(ew.Events(), 500*time.Millisecond, 2*time.Second)
	debouncer.Start(ctx)

	go func() {
		for ev := range debouncer.Output() {
			logging.Debug("export directory changed", "paths", len(ev.Paths))
			server.PublishHistoryChange(ev.Paths)
		}
	}()
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("cannot open browser on platform", "platform", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
