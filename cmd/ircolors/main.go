package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/ircolors/internal/app"
	"github.com/hyperifyio/ircolors/internal/render"
)

// usageOutput receives flag errors and -h help text.
var usageOutput io.Writer = os.Stderr

func main() {
	// Logging setup; stdout is reserved for the color table
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := runMain(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

// runMain parses args, layers configuration and runs the pipeline writing to
// stdout. It returns flag.ErrHelp untouched for -h.
func runMain(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("ircolors", flag.ContinueOnError)
	fs.SetOutput(usageOutput)
	var (
		cfg        app.Config
		configPath string
		envFiles   string
		retries    int
		version    bool
	)
	fs.StringVar(&cfg.URL, "url", "", "Page to fetch (default "+app.DefaultURL+")")
	fs.StringVar(&cfg.InputPath, "input", "", "Read a saved HTML page instead of fetching")
	fs.StringVar(&cfg.Format, "format", "", "Output format: "+formatNames()+" (default rust)")
	fs.StringVar(&configPath, "config", "", "Path to YAML or JSON config file (env IRCOLORS_CONFIG)")
	fs.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load; missing files are ignored")
	fs.StringVar(&cfg.UserAgent, "ua", "", "User-Agent header for the page request")
	fs.DurationVar(&cfg.Timeout, "timeout", 0, "Per-attempt request timeout (e.g. 30s); 0 waits indefinitely")
	fs.IntVar(&retries, "retries", 0, "Retries on 5xx or timeout")
	fs.StringVar(&cfg.CacheDir, "cache.dir", "", "Cache directory for conditional revalidation; empty disables caching")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this before the run; 0 disables")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear cache directory before run")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.StringVar(&cfg.TableClass, "class.table", "", "CSS class of the color table (default rgb-table)")
	fs.StringVar(&cfg.HexClass, "class.hex", "", "CSS class of the hex value element (default hexcode)")
	fs.StringVar(&cfg.CodeClass, "class.code", "", "CSS class of the color code element (default colorcode)")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	fs.BoolVar(&version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if version {
		_, err := fmt.Fprintln(stdout, app.VersionString())
		return err
	}
	if retries > 0 {
		cfg.MaxAttempts = retries + 1
	}

	if err := app.LoadEnvFiles(splitList(envFiles)...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	app.ApplyEnvToConfig(&cfg)
	if strings.TrimSpace(configPath) == "" {
		configPath = os.Getenv("IRCOLORS_CONFIG")
	}
	if strings.TrimSpace(configPath) != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return run(cfg, stdout)
}

func run(cfg app.Config, stdout io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	log.Debug().Interface("config", a.Config()).Msg("effective config")
	return a.Run(ctx, stdout)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			list = append(list, v)
		}
	}
	return list
}

func formatNames() string {
	names := make([]string, len(render.Formats))
	for i, f := range render.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
