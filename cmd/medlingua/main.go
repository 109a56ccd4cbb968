// Package main is the MedLingua CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
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

	"go.uber.org/zap"

	"github.com/medlingua/medlingua/internal/config"
	"github.com/medlingua/medlingua/internal/glossary"
	"github.com/medlingua/medlingua/internal/ingest"
	"github.com/medlingua/medlingua/internal/ocr"
	"github.com/medlingua/medlingua/internal/pipeline"
	"github.com/medlingua/medlingua/internal/recommend"
	"github.com/medlingua/medlingua/internal/server"
	"github.com/medlingua/medlingua/internal/storage"
	"github.com/medlingua/medlingua/internal/translator"
	"github.com/medlingua/medlingua/internal/upload"
	"github.com/medlingua/medlingua/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/medlingua/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "medlingua server" from the project dir uses the project's config (including debug).
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
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
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "translate":
		runTranslate()
	case "extract":
		runExtract()
	case "glossary":
		runGlossary()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("medlingua version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (request processing, cache hits, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	defer janitorCancel()
	if err := components.Janitor.Start(janitorCtx); err != nil {
		logger.Fatal("Failed to start upload janitor", zap.Error(err))
	}

	srv := server.NewServer(
		components.Pipeline,
		components.Translator,
		components.Glossary,
		components.Searcher,
		components.Cache,
		components.Uploads,
		&cfg.Server,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	janitorCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildTranslateText joins all positional args with spaces so multi-word input
// works the same with or without shell quoting.
func buildTranslateText(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// translateArgsReorder moves any flags (and their values) that appear after the
// text to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument.
func translateArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func printTranslateUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: medlingua translate [flags] <text>\n\n")
	fmt.Fprintf(fs.Output(), "Text is all remaining arguments joined by spaces. Multi-word input works with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  medlingua translate I have a fever and a headache
  medlingua translate --target hi "I have a fever"
  medlingua translate --mode dedup --output json chest pain
`)
}

func runTranslate() {
	args := translateArgsReorder(os.Args[2:])
	fs := flag.NewFlagSet("translate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run the pipeline locally)")
	source := fs.String("source", "en", "source language code")
	target := fs.String("target", "es", "target language code")
	mode := fs.String("mode", "", "recommendation mode: per_concept or dedup (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printTranslateUsage(fs) }
	_ = fs.Parse(args)

	text := buildTranslateText(fs.Args())
	if text == "" {
		printTranslateUsage(fs)
		os.Exit(1)
	}

	var result *pipeline.Result
	if *serverURL != "" {
		res, err := translateViaHTTP(*serverURL, text, *source, *target, *mode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Translate failed: %v\n", err)
			os.Exit(1)
		}
		result = res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()

		reqMode, err := recommend.ParseMode(*mode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		result, err = components.Pipeline.Process(context.Background(), text, *source, *target, reqMode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Translate failed: %v\n", err)
			os.Exit(1)
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Println(result.TranslatedText)
		if len(result.Keywords) > 0 {
			fmt.Println()
			fmt.Println("# recognized terms")
			for _, k := range result.Keywords {
				fmt.Printf("%-24s %s\n", k.Term, k.Concept)
			}
		}
		if len(result.Recommendations) > 0 {
			fmt.Println()
			fmt.Println("# recommended departments")
			for _, r := range result.Recommendations {
				if r.Concept != "" {
					fmt.Printf("%-24s %s\n", r.Concept, r.Department)
				} else {
					fmt.Println(r.Department)
				}
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func translateViaHTTP(serverURL, text, source, target, mode string) (*pipeline.Result, error) {
	payload := map[string]string{
		"text":        text,
		"source_lang": source,
		"target_lang": target,
	}
	if mode != "" {
		payload["recommendation_mode"] = mode
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/translate", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var result pipeline.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func runExtract() {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for OCR settings)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: medlingua extract [flags] <file>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	opts := []ingest.Option{ingest.WithWorkers(cfg.OCR.Workers), ingest.WithLogger(logger)}
	if cfg.OCR.BaseURL != "" {
		opts = append(opts, ingest.WithOCR(ocr.NewHTTPClient(cfg.OCR.BaseURL, time.Duration(cfg.OCR.TimeoutSeconds)*time.Second)))
	}
	extractor := ingest.NewExtractor(opts...)

	text, err := extractor.ExtractFile(context.Background(), path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Extraction failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(text)
}

func runGlossary() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: medlingua glossary <search|list> [args]")
		fmt.Println("  medlingua glossary search <query>  Search glossary concepts")
		fmt.Println("  medlingua glossary list            List all concept keys")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("glossary", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 10, "number of search results")
	_ = fs.Parse(os.Args[3:])

	index, err := loadGlossary(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load glossary: %v\n", err)
		os.Exit(1)
	}

	switch sub {
	case "search":
		if fs.NArg() < 1 {
			fmt.Println("Usage: medlingua glossary search <query>")
			os.Exit(1)
		}
		searcher, err := glossary.NewSearcher(index)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to build search index: %v\n", err)
			os.Exit(1)
		}
		defer searcher.Close()
		hits, err := searcher.Search(strings.Join(fs.Args(), " "), *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		for _, h := range hits {
			fmt.Printf("%-24s %.3f\n", h.Key, h.Score)
		}
	case "list":
		for _, key := range index.Keys() {
			fmt.Println(key)
		}
	default:
		fmt.Printf("Unknown glossary subcommand: %s\n", sub)
		os.Exit(1)
	}
}

// loadGlossary loads the configured glossary file, falling back to the
// built-in one when no config or no path is set.
func loadGlossary(configPath string) (*glossary.Index, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil || cfg.Glossary.Path == "" {
		return glossary.LoadBuiltin()
	}
	return glossary.Load(cfg.Glossary.Path)
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Concepts           int    `json:"concepts"`
	Departments        int    `json:"departments"`
	CachedTranslations *int64 `json:"cached_translations,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = inspect local state directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		index, err := loadGlossary(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load glossary: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{Concepts: index.ConceptCount(), Departments: index.DepartmentCount()}
		cache, err := storage.NewSQLiteCache(cfg.Storage.CachePath)
		if err == nil {
			defer cache.Close()
			if n, countErr := cache.Count(context.Background()); countErr == nil {
				status.CachedTranslations = &n
			}
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("concepts:             %d   # glossary concepts\n", status.Concepts)
		fmt.Printf("departments:          %d   # clinical departments\n", status.Departments)
		if status.CachedTranslations != nil {
			fmt.Printf("cached_translations:  %d   # entries in the translation cache\n", *status.CachedTranslations)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Glossary   *glossary.Index
	Searcher   *glossary.Searcher
	Cache      storage.TranslationCache
	Translator translator.Translator
	Extractor  *ingest.Extractor
	Pipeline   *pipeline.Pipeline
	Uploads    *upload.Store
	Janitor    *upload.Janitor
}

func (c *Components) Close() {
	if c.Janitor != nil {
		c.Janitor.Stop()
	}
	if c.Searcher != nil {
		_ = c.Searcher.Close()
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	var index *glossary.Index
	var err error
	if cfg.Glossary.Path != "" {
		index, err = glossary.Load(cfg.Glossary.Path)
	} else {
		index, err = glossary.LoadBuiltin()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load glossary: %w", err)
	}

	searcher, err := glossary.NewSearcher(index)
	if err != nil {
		return nil, fmt.Errorf("failed to build glossary search index: %w", err)
	}

	cache, err := storage.NewSQLiteCache(cfg.Storage.CachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize translation cache: %w", err)
	}

	tr := translator.NewHTTPClient(cfg.Translator.BaseURL, time.Duration(cfg.Translator.TimeoutSeconds)*time.Second)

	extractOpts := []ingest.Option{ingest.WithWorkers(cfg.OCR.Workers), ingest.WithLogger(logger)}
	if cfg.OCR.BaseURL != "" {
		extractOpts = append(extractOpts,
			ingest.WithOCR(ocr.NewHTTPClient(cfg.OCR.BaseURL, time.Duration(cfg.OCR.TimeoutSeconds)*time.Second)))
	}
	extractor := ingest.NewExtractor(extractOpts...)

	mode, err := recommend.ParseMode(cfg.Pipeline.RecommendationMode)
	if err != nil {
		return nil, fmt.Errorf("invalid recommendation mode: %w", err)
	}
	pipe := pipeline.New(index, tr, extractor, cfg.Pipeline.NormalizeLanguages,
		pipeline.WithCache(cache),
		pipeline.WithDefaultMode(mode),
		pipeline.WithLogger(logger),
	)

	uploads, err := upload.NewStore(cfg.Uploads.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize upload store: %w", err)
	}
	janitor := upload.NewJanitor(cfg.Uploads.Dir, time.Duration(cfg.Uploads.TTLSeconds)*time.Second, logger)

	if logger != nil {
		logger.Info("components initialized",
			zap.Int("concepts", index.ConceptCount()),
			zap.Int("departments", index.DepartmentCount()),
			zap.String("translator", cfg.Translator.BaseURL),
			zap.Bool("ocr_enabled", cfg.OCR.BaseURL != ""))
	}

	return &Components{
		Glossary:   index,
		Searcher:   searcher,
		Cache:      cache,
		Translator: tr,
		Extractor:  extractor,
		Pipeline:   pipe,
		Uploads:    uploads,
		Janitor:    janitor,
	}, nil
}

func printUsage() {
	fmt.Println(`medlingua - Medical term recognition and translation assistant

Usage:
  medlingua server [flags]            Start the HTTP server
  medlingua translate [flags] <text>  Translate text with term recognition
  medlingua extract [flags] <file>    Extract text from a document
  medlingua glossary <search|list>    Inspect the medical glossary
  medlingua status [flags]            Show glossary/cache status
  medlingua version                   Show version
  medlingua help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/medlingua/config.yaml)
  --debug            Enable debug logging (request processing, cache hits, etc.)

Translate Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to run the pipeline locally.
  --source string    Source language code (default: en)
  --target string    Target language code (default: es)
  --mode string      Recommendation mode: per_concept or dedup
  --output string    Output format: text or json (default: text)

Extract Flags:
  --config string    Config file path (for OCR settings)

Glossary Flags:
  --config string    Config file path (empty glossary path = built-in glossary)
  --limit int        Number of search results (default: 10)

Status Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct mode.
  --output string    Output format: text or json (default: text)

Examples:
  medlingua server
  medlingua translate I have a fever and a headache
  medlingua translate --target hi --output json "chest pain"
  medlingua extract report.pdf
  medlingua glossary search fiebre
  medlingua status --output json`)
}
