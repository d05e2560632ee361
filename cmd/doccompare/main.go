// Package main is the doccompare CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/doccompare/internal/cli"
	"github.com/hyperjump/doccompare/internal/compare"
	"github.com/hyperjump/doccompare/internal/config"
	"github.com/hyperjump/doccompare/internal/extract"
	"github.com/hyperjump/doccompare/internal/models"
	"github.com/hyperjump/doccompare/internal/ocr"
	"github.com/hyperjump/doccompare/internal/ocr/tesseract"
	"github.com/hyperjump/doccompare/internal/pdfrender"
	"github.com/hyperjump/doccompare/internal/raster/fitz"
	"github.com/hyperjump/doccompare/internal/report"
	"github.com/hyperjump/doccompare/internal/server"
	"github.com/hyperjump/doccompare/internal/storage"
	"github.com/hyperjump/doccompare/internal/watcher"
	"github.com/hyperjump/doccompare/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development). A missing default file
// is not an error: built-in defaults are used and the returned path is empty.
func loadConfig(path string) (*config.Config, string, error) {
	if path == config.DefaultPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(cli.ExitInsufficientInput)
	}
	command := os.Args[1]
	switch command {
	case "compare":
		runCompare()
	case "watch":
		runWatch()
	case "server":
		runServer()
	case "cache":
		runCache()
	case "config":
		runConfig()
	case "version", "--version", "-v":
		fmt.Printf("doccompare version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(cli.ExitInsufficientInput)
	}
}

// reorderArgs moves flags (and their values) in front of the positional
// arguments so flag.Parse sees them wherever they were typed. Go's flag
// package stops at the first non-flag argument. Positionals keep their
// relative order, which matters for comparisons. Everything after "--" is
// positional.
func reorderArgs(fs *flag.FlagSet, args []string) []string {
	flags := make([]string, 0, len(args))
	positional := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(a) < 2 || a[0] != '-' {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") {
			continue
		}
		f := fs.Lookup(name)
		if f == nil || isBoolFlag(f) {
			continue
		}
		if i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	if len(positional) == 0 {
		return flags
	}
	return append(append(flags, "--"), positional...)
}

func isBoolFlag(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

// Components holds the wired comparison pipeline.
type Components struct {
	Cache    *storage.SQLiteCache
	Comparer *compare.Comparer
	PDF      *report.PDFRenderer
}

// Close releases the cache database, if open.
func (c *Components) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}

// componentOptions are command-line overrides applied on top of the config.
type componentOptions struct {
	noOCR        bool
	noCache      bool
	concurrency  int
	contextLines int
}

// ocrProfile names the OCR settings that change recognized text, so cached
// extractions made under other settings are not reused.
func ocrProfile(c config.OCRConfig) string {
	return fmt.Sprintf("lang=%s|psm=%d|dpi=%d", strings.Join(c.Languages, "+"), c.PageSegMode, c.DPI)
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, opts componentOptions) (*Components, error) {
	extOpts := []extract.Option{extract.WithLogger(logger)}
	if cfg.OCR.EnabledOrDefault() && !opts.noOCR {
		recognizer := tesseract.New(
			tesseract.WithLanguages(cfg.OCR.Languages...),
			tesseract.WithPageSegMode(cfg.OCR.PageSegMode),
			tesseract.WithDPI(cfg.OCR.DPI),
		)
		extOpts = append(extOpts,
			extract.WithRecognizer(ocr.WithTimeout(recognizer, cfg.OCR.Timeout)),
			extract.WithRasterizer(fitz.New(float64(cfg.OCR.DPI))),
			extract.WithOCRProfile(ocrProfile(cfg.OCR)),
		)
	} else {
		logger.Debug("ocr disabled")
	}
	extractor := extract.NewExtractor(extOpts...)

	concurrency := cfg.Compare.Concurrency
	if opts.concurrency > 0 {
		concurrency = opts.concurrency
	}
	contextLines := cfg.Compare.ContextLinesOrDefault()
	if opts.contextLines >= 0 {
		contextLines = opts.contextLines
	}
	cmpOpts := []compare.Option{
		compare.WithLogger(logger),
		compare.WithConcurrency(concurrency),
		compare.WithContextLines(contextLines),
	}

	components := &Components{}
	if cfg.Cache.Enabled && !opts.noCache {
		cache, err := storage.NewSQLiteCache(cfg.Cache.DatabasePath)
		if err != nil {
			logger.Warn("extraction cache unavailable, continuing without it",
				zap.String("path", cfg.Cache.DatabasePath), zap.Error(err))
		} else {
			components.Cache = cache
			cmpOpts = append(cmpOpts, compare.WithCache(cache))
		}
	}
	components.Comparer = compare.NewComparer(extractor, cmpOpts...)

	renderer, err := pdfrender.New(cfg.Render.PDFEngine, pdfrender.Options{
		WkhtmltopdfPath: cfg.Render.WkhtmltopdfPath,
		PageSize:        cfg.Render.PageSize,
		Timeout:         cfg.Render.Timeout,
	})
	if err != nil {
		components.Close()
		return nil, err
	}
	if pdfrender.Engine(cfg.Render.PDFEngine) == pdfrender.EngineWkhtmltopdf &&
		!pdfrender.IsWkhtmltopdfAvailable(cfg.Render.WkhtmltopdfPath) {
		logger.Warn("wkhtmltopdf not found; pdf reports will fail",
			zap.String("path", cfg.Render.WkhtmltopdfPath))
	}
	components.PDF = &report.PDFRenderer{Renderer: renderer}
	return components, nil
}

// outputPaths are the artifact destinations requested on the command line.
type outputPaths struct {
	txt, html, pdf, xlsx, json string
}

func registerOutputs(fs *flag.FlagSet) *outputPaths {
	o := &outputPaths{}
	fs.StringVar(&o.txt, "txt", "", "write the text report to this file")
	fs.StringVar(&o.html, "html", "", "write the HTML report to this file")
	fs.StringVar(&o.pdf, "pdf", "", "write the PDF report to this file")
	fs.StringVar(&o.xlsx, "xlsx", "", "write the XLSX workbook to this file")
	fs.StringVar(&o.json, "json", "", "write the structured JSON report to this file")
	return o
}

// renderArtifacts renders every requested report in memory. Nothing is
// written unless all renderings succeed.
func renderArtifacts(ctx context.Context, rep *models.ComparisonReport, out *outputPaths, pdf *report.PDFRenderer) ([]cli.Artifact, error) {
	var artifacts []cli.Artifact
	if out.txt != "" {
		artifacts = append(artifacts, cli.Artifact{Path: out.txt, Data: []byte(report.Text(rep) + "\n")})
	}
	if out.html != "" {
		doc, err := report.HTML(rep)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, cli.Artifact{Path: out.html, Data: []byte(doc)})
	}
	if out.pdf != "" {
		data, err := pdf.Render(ctx, rep)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, cli.Artifact{Path: out.pdf, Data: data})
	}
	if out.xlsx != "" {
		data, err := report.XLSX(rep)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, cli.Artifact{Path: out.xlsx, Data: data})
	}
	if out.json != "" {
		var buf bytes.Buffer
		if err := cli.WriteReport(&buf, rep, cli.OutputJSON); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, cli.Artifact{Path: out.json, Data: buf.Bytes()})
	}
	return artifacts, nil
}

// compareOnce runs one comparison, writes the requested artifacts and prints the report.
func compareOnce(ctx context.Context, c *Components, files []string, out *outputPaths, format cli.OutputFormat, stdout io.Writer, logger *zap.Logger) error {
	rep, err := c.Comparer.Compare(ctx, files)
	if err != nil {
		return err
	}
	for _, w := range rep.Warnings {
		logger.Warn("extraction warning", zap.String("warning", w.String()))
	}
	artifacts, err := renderArtifacts(ctx, rep, out, c.PDF)
	if err != nil {
		return err
	}
	if err := cli.WriteArtifacts(artifacts); err != nil {
		return err
	}
	for _, a := range artifacts {
		logger.Debug("report written", zap.String("path", a.Path), zap.Int("bytes", len(a.Data)))
	}
	return cli.WriteReport(stdout, rep, format)
}

// pipelineFlags are shared by compare and watch.
type pipelineFlags struct {
	configPath   *string
	debug        *bool
	output       *string
	noOCR        *bool
	noCache      *bool
	concurrency  *int
	contextLines *int
	out          *outputPaths
}

func registerPipelineFlags(fs *flag.FlagSet) *pipelineFlags {
	return &pipelineFlags{
		configPath:   fs.String("config", config.DefaultPath, "config file path"),
		debug:        fs.Bool("debug", false, "enable debug logging (per-page OCR fallback, cache hits)"),
		output:       fs.String("output", "text", "stdout format: text, or json to print the structured report instead"),
		noOCR:        fs.Bool("no-ocr", false, "disable OCR for scanned pages and images"),
		noCache:      fs.Bool("no-cache", false, "do not use the extraction cache"),
		concurrency:  fs.Int("concurrency", 0, "files extracted in parallel (default from config)"),
		contextLines: fs.Int("context", -1, "unchanged lines around each change (default from config)"),
		out:          registerOutputs(fs),
	}
}

func (p *pipelineFlags) options() componentOptions {
	return componentOptions{
		noOCR:        *p.noOCR,
		noCache:      *p.noCache,
		concurrency:  *p.concurrency,
		contextLines: *p.contextLines,
	}
}

// setupPipeline loads config, builds the logger and wires the components.
// Failures are reported and exit the process.
func setupPipeline(p *pipelineFlags) (*config.Config, *zap.Logger, *Components, cli.OutputFormat) {
	format, err := cli.ParseOutputFormat(*p.output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitInsufficientInput)
	}
	cfg, resolvedConfigPath, err := loadConfig(*p.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(cli.ExitError)
	}
	debugMode := cfg.Debug || *p.debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(cli.ExitError)
	}
	logger.Debug("config loaded", zap.String("config_path", resolvedConfigPath))

	components, err := initializeComponents(cfg, logger, p.options())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		_ = logger.Sync()
		os.Exit(cli.ExitError)
	}
	return cfg, logger, components, format
}

func runCompare() {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	p := registerPipelineFlags(fs)
	fs.Usage = func() { printCompareUsage(fs) }
	_ = fs.Parse(reorderArgs(fs, os.Args[2:]))

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, compare.ErrInsufficientInput)
		printCompareUsage(fs)
		os.Exit(cli.ExitInsufficientInput)
	}

	_, logger, components, format := setupPipeline(p)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := compareOnce(ctx, components, fs.Args(), p.out, format, os.Stdout, logger)
	stop()
	components.Close()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Comparison failed: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}

func printCompareUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: doccompare compare [flags] <file1> <file2> [fileN...]\n\n")
	fmt.Fprintf(fs.Output(), "Each file is compared with the next one. Supported inputs: PDF, DOCX, PNG, JPEG, TIFF, BMP, GIF, WebP.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  doccompare compare v1.pdf v2.pdf
  doccompare compare -html diff.html -pdf diff.pdf v1.docx v2.docx v3.pdf
  doccompare compare scan.png typed.pdf -output json
`)
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	p := registerPipelineFlags(fs)
	_ = fs.Parse(reorderArgs(fs, os.Args[2:]))

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, compare.ErrInsufficientInput)
		fmt.Fprintln(os.Stderr, "Usage: doccompare watch [flags] <file1> <file2> [fileN...]")
		os.Exit(cli.ExitInsufficientInput)
	}
	files := fs.Args()

	cfg, logger, components, format := setupPipeline(p)
	defer logger.Sync()
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	run := func() {
		if err := compareOnce(ctx, components, files, p.out, format, os.Stdout, logger); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("comparison failed", zap.Error(err), zap.Int("exit_code", cli.ExitCode(err)))
		}
	}
	run()

	watchSvc, err := watcher.NewWatcher(files,
		func(changed []string) {
			logger.Info("inputs changed, comparing again", zap.Strings("files", changed))
			run()
		},
		watcher.WithLogger(logger),
		watcher.WithDebounce(cfg.Watch.Debounce),
	)
	if err != nil {
		logger.Fatal("Failed to create watcher", zap.Error(err))
	}
	if err := watchSvc.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	logger.Info("watching for changes", zap.Strings("files", watchSvc.Files()))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	watchSvc.Stop()
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	host := fs.String("host", "", "listen host (default from config)")
	port := fs.Int("port", 0, "listen port (default from config)")
	noOCR := fs.Bool("no-ocr", false, "disable OCR for scanned pages and images")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(cli.ExitError)
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(cli.ExitError)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.Bool("ocr", cfg.OCR.EnabledOrDefault() && !*noOCR),
		zap.String("pdf_engine", cfg.Render.PDFEngine),
	)

	components, err := initializeComponents(cfg, logger, componentOptions{noOCR: *noOCR, contextLines: -1})
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	var cache storage.Cache
	if components.Cache != nil {
		cache = components.Cache
	}
	srv := server.NewServer(components.Comparer, components.PDF, cache, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// cacheStatus is the shape of `cache status -output json`.
type cacheStatus struct {
	Enabled        bool   `json:"enabled"`
	DatabasePath   string `json:"database_path"`
	Entries        int64  `json:"entries"`
	DiskUsageBytes *int64 `json:"disk_usage_bytes,omitempty"`
}

func runCache() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: doccompare cache <status|clear> [flags]")
		os.Exit(cli.ExitInsufficientInput)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("cache "+sub, flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[3:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(cli.ExitError)
	}
	cache, err := storage.NewSQLiteCache(cfg.Cache.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open cache: %v\n", err)
		os.Exit(cli.ExitError)
	}
	defer cache.Close()
	ctx := context.Background()

	switch sub {
	case "status":
		n, err := cache.Count(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read cache: %v\n", err)
			os.Exit(cli.ExitError)
		}
		status := cacheStatus{Enabled: cfg.Cache.Enabled, DatabasePath: cache.Path(), Entries: n}
		if size, err := cache.DiskUsage(); err == nil {
			status.DiskUsageBytes = &size
		}
		if *outputFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(status)
			return
		}
		fmt.Printf("Cache:    %s (enabled: %t)\n", status.DatabasePath, status.Enabled)
		fmt.Printf("Entries:  %d\n", status.Entries)
		if status.DiskUsageBytes != nil {
			fmt.Printf("Disk:     %s\n", formatBytes(*status.DiskUsageBytes))
		}
	case "clear":
		n, err := cache.Purge(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to clear cache: %v\n", err)
			os.Exit(cli.ExitError)
		}
		fmt.Printf("Removed %d cached extraction(s)\n", n)
	default:
		fmt.Fprintf(os.Stderr, "Unknown cache command: %s (use status or clear)\n", sub)
		os.Exit(cli.ExitInsufficientInput)
	}
}

// formatBytes returns a short human-readable size.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func runConfig() {
	if len(os.Args) < 3 || os.Args[2] != "init" {
		fmt.Fprintln(os.Stderr, "Usage: doccompare config init [-config path] [-force]")
		os.Exit(cli.ExitInsufficientInput)
	}
	fs := flag.NewFlagSet("config init", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath, "where to write the config file")
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(os.Args[3:])

	if err := initConfig(*configPath, *force); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitError)
	}
	fmt.Printf("Wrote default config to %s\n", *configPath)
}

// initConfig writes the default config to path. An existing file is kept unless force is set.
func initConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}
	return config.Save(path, config.Default())
}

func printUsage() {
	fmt.Println(`doccompare - Compare PDF, DOCX and image documents as text

Usage:
  doccompare compare [flags] <file1> <file2> [fileN...]   Compare files pairwise in order
  doccompare watch [flags] <file1> <file2> [fileN...]     Compare again whenever a file changes
  doccompare server [flags]                               Start the HTTP API
  doccompare cache <status|clear> [flags]                 Inspect or clear the extraction cache
  doccompare config init [flags]                          Write a default config file
  doccompare version                                      Show version
  doccompare help                                         Show this help

Compare / Watch Flags:
  --config string     Config file path (default: /usr/local/etc/doccompare/config.yaml)
  --debug             Enable debug logging
  --txt string        Write the text report to this file
  --html string       Write the HTML report to this file
  --pdf string        Write the PDF report to this file
  --xlsx string       Write the XLSX workbook to this file
  --json string       Write the structured JSON report to this file
  --output string     Stdout format: text or json (default: text; json replaces the text summary)
  --no-ocr            Disable OCR for scanned pages and images
  --no-cache          Do not use the extraction cache
  --concurrency int   Files extracted in parallel
  --context int       Unchanged lines around each change

Server Flags:
  --config string    Config file path
  --debug            Enable debug logging
  --host string      Listen host
  --port int         Listen port
  --no-ocr           Disable OCR

Exit codes:
  0 ok, 1 error, 2 usage or fewer than two files, 3 invalid input file,
  4 unsupported format, 5 extraction failed, 6 report rendering failed

Examples:
  doccompare compare contract-v1.pdf contract-v2.docx
  doccompare compare -html diff.html -pdf diff.pdf a.pdf b.pdf c.pdf
  doccompare compare --output json a.png b.png
  doccompare watch draft.docx final.pdf
  doccompare server --port 9090
  doccompare cache status`)
}
