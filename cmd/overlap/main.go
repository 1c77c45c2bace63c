package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/benedoc-inc/overlap"
	"github.com/benedoc-inc/overlap/cache"
	"github.com/benedoc-inc/overlap/cache/cacheredis"
	"github.com/benedoc-inc/overlap/core/compare"
	"github.com/benedoc-inc/overlap/core/match"
	"github.com/benedoc-inc/overlap/internal/config"
	"github.com/benedoc-inc/overlap/internal/logging"
	"github.com/benedoc-inc/overlap/internal/pipeline"
	"github.com/benedoc-inc/overlap/internal/server"
	"github.com/benedoc-inc/overlap/storage"
	"github.com/benedoc-inc/overlap/storage/storagelocal"
	"github.com/benedoc-inc/overlap/storage/storages3"
	"github.com/benedoc-inc/overlap/types"
)

const usage = `usage: overlap <command> [flags]

commands:
  text   <source> <target>   find shared text, write annotated copies and reports
  images <source> <target>   find identical images (PDF files or extracted image directories)
  serve                      run the HTTP server
  version                    print the version
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "text":
		err = runText(args)
	case "images":
		err = runImages(args)
	case "serve":
		err = runServe(args)
	case "version":
		fmt.Println(overlap.Version())
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env holds what every command needs
type env struct {
	cfg    config.Config
	logger *zap.Logger
	store  storage.Store
	cache  cache.Cache
	close  func()
}

func setup(ctx context.Context, fs *flag.FlagSet, args []string) (*env, []string, error) {
	cfg, rest, err := loadConfig(fs, args)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	e := &env{cfg: cfg, logger: logger, close: func() { _ = logger.Sync() }}

	switch cfg.Storage.Mode {
	case config.StorageS3:
		e.store, err = storages3.NewFromRegion(ctx, cfg.Storage.Region, cfg.Storage.Bucket, cfg.Storage.Prefix)
	default:
		e.store, err = storagelocal.New(cfg.StorageDir())
	}
	if err != nil {
		return nil, nil, err
	}

	e.cache = cache.NewMemory(cfg.Cache.TTL)
	if cfg.Cache.RedisAddr != "" {
		rc, rdb, err := cacheredis.Dial(ctx, cfg.Cache.RedisAddr, cfg.Cache.TTL)
		if err != nil {
			logger.Warn("redis unavailable, using in-process cache", zap.Error(err))
		} else {
			e.cache = rc
			prev := e.close
			e.close = func() { _ = rdb.Close(); prev() }
		}
	}
	return e, rest, nil
}

// loadConfig parses the common flags and returns the validated configuration.
// Flags given on the command line override the config file, zero values
// included.
func loadConfig(fs *flag.FlagSet, args []string) (config.Config, []string, error) {
	configPath := fs.String("config", "overlap.yaml", "Path to YAML config file")
	minLength := fs.Int("min-length", match.DefaultMinLength, "Minimum match length in characters (overrides config)")
	outDir := fs.String("out", "", "Output directory (overrides config)")
	verbose := fs.Bool("verbose", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, nil, types.WrapError(types.ErrCodeInvalidConfiguration, "invalid flags", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min-length":
			cfg.MinLength = *minLength
		case "out":
			if *outDir != "" {
				cfg.OutputDir, cfg.Storage.Dir = *outDir, ""
			}
		case "verbose":
			if *verbose {
				cfg.Log.Level = "debug"
			}
		}
	})
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}
	return cfg, fs.Args(), nil
}

func (e *env) pipeline(cfg config.Config) *pipeline.Pipeline {
	return pipeline.New(cfg, e.store, e.cache, e.logger)
}

func runText(args []string) error {
	ctx := context.Background()
	fs := flag.NewFlagSet("text", flag.ExitOnError)
	report := fs.Bool("report", false, "Print the text report to stdout")
	e, rest, err := setup(ctx, fs, args)
	if err != nil {
		return err
	}
	defer e.close()
	if len(rest) != 2 {
		return errors.New("text needs exactly two documents")
	}

	a, err := readInput(rest[0])
	if err != nil {
		return err
	}
	b, err := readInput(rest[1])
	if err != nil {
		return err
	}

	out, err := e.pipeline(e.cfg).CompareText(ctx, a, b, "")
	if out == nil {
		return err
	}
	if *report {
		fmt.Print(compare.GenerateReport(out.Result))
	}
	for _, o := range out.Outputs {
		fmt.Println(o)
	}
	return err
}

func runImages(args []string) error {
	ctx := context.Background()
	fs := flag.NewFlagSet("images", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print the comparison as JSON")
	e, rest, err := setup(ctx, fs, args)
	if err != nil {
		return err
	}
	defer e.close()
	if len(rest) != 2 {
		return errors.New("images needs exactly two PDF files or image directories")
	}

	var sets [2]pipeline.AssetSet
	for i, p := range rest {
		if sets[i], err = readAssets(p); err != nil {
			return err
		}
	}

	out, err := e.pipeline(e.cfg).CompareImages(ctx, sets[0], sets[1], "")
	if out == nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if jerr := enc.Encode(out.Result); jerr != nil {
			return jerr
		}
	} else {
		fmt.Print(compare.GenerateAssetReport(out.Result))
	}
	for _, o := range out.Outputs {
		fmt.Println(o)
	}
	return err
}

func runServe(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (overrides config)")
	e, _, err := setup(ctx, fs, args)
	if err != nil {
		return err
	}
	defer e.close()
	if *addr != "" {
		e.cfg.Server.Addr = *addr
	}

	srv := server.New(e.cfg, e.store, e.pipeline, e.logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		e.logger.Info("shutting down")
		return srv.Shutdown(30 * time.Second)
	}
}

func readInput(path string) (pipeline.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Input{}, unreadable(path, err)
	}
	return pipeline.Input{Name: path, Data: data}, nil
}

func readAssets(path string) (pipeline.AssetSet, error) {
	info, err := os.Stat(path)
	if err != nil {
		return pipeline.AssetSet{}, unreadable(path, err)
	}
	if info.IsDir() {
		return pipeline.LoadAssetDir(path)
	}
	in, err := readInput(path)
	if err != nil {
		return pipeline.AssetSet{}, err
	}
	return pipeline.ReadAssets(in)
}

func unreadable(path string, err error) error {
	return types.WrapError(types.ErrCodeUnreadableDocument, "failed to read input", err).
		WithContext("document", path)
}
