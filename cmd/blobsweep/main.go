package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vulnverified/blobsweep/internal/engine"
	"github.com/vulnverified/blobsweep/internal/output"
	"github.com/vulnverified/blobsweep/internal/permute"
	"github.com/vulnverified/blobsweep/internal/recon"
	"golang.org/x/term"
)

// Set via ldflags at build time.
var version = "dev"

const defaultThreads = 5

// globalOptions holds the flags shared by every subcommand.
type globalOptions struct {
	threads    int
	timeout    time.Duration
	resolvers  []string
	rate       float64
	outputPath string
	jsonOutput bool
	noColor    bool
	silent     bool
	verbose    bool
	debug      bool
}

// session is the per-run state built from globalOptions.
type session struct {
	opts         *globalOptions
	progress     *output.Progress
	log          *logrus.Logger
	sink         engine.Sink
	userAgent    string
	showProgress bool
}

func main() {
	output.Version = version

	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "blobsweep",
		Short: "Enumerate Azure storage accounts, public containers and platform subdomains",
		Long: "Brute-force discovery of Azure platform subdomains and publicly listable " +
			"blob storage containers from base words and permutation wordlists.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.IntVarP(&opts.threads, "threads", "t", defaultThreads, "Number of concurrent workers")
	pf.DurationVar(&opts.timeout, "timeout", 5*time.Second, "Per-request timeout for DNS and container HTTP requests")
	pf.StringSliceVar(&opts.resolvers, "resolver", nil, "DNS server host[:port] (repeatable, default: /etc/resolv.conf)")
	pf.Float64Var(&opts.rate, "rate", 0, "Max DNS queries / HTTP requests per second (0 = unlimited)")
	pf.StringVarP(&opts.outputPath, "output", "o", "", "Append discovered names to this file")
	pf.BoolVar(&opts.jsonOutput, "json", false, "Output structured JSON to stdout")
	pf.BoolVar(&opts.noColor, "no-color", false, "Disable terminal colors")
	pf.BoolVar(&opts.silent, "silent", false, "Results only, no progress")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose stage detail")
	pf.BoolVar(&opts.debug, "debug", false, "Log every DNS and HTTP attempt")

	rootCmd.AddCommand(newContainersCmd(opts), newSubdomainsCmd(opts))

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("blobsweep {{.Version}}\n")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		cancel()
		os.Exit(1)
	}
}

// newSession applies environment overrides and builds progress, logging and
// sink for one run.
func newSession(opts *globalOptions) *session {
	// Respect NO_COLOR env var.
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		opts.noColor = true
	}
	if opts.noColor {
		color.NoColor = true
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		DisableLevelTruncation: true,
		FullTimestamp:          true,
		DisableColors:          opts.noColor,
	})
	log.SetLevel(logrus.WarnLevel)
	if opts.debug {
		log.SetLevel(logrus.DebugLevel)
	}

	showProgress := !opts.jsonOutput && !opts.silent
	bars := term.IsTerminal(int(os.Stderr.Fd())) && !opts.debug
	progress := output.NewProgress(os.Stderr, opts.verbose, !showProgress, bars)

	if opts.threads < 1 {
		progress.Warn(fmt.Sprintf("Invalid thread count: %d. Defaulting back to %d.", opts.threads, defaultThreads))
		opts.threads = defaultThreads
	}

	s := &session{
		opts:         opts,
		progress:     progress,
		log:          log,
		userAgent:    fmt.Sprintf("blobsweep/%s", version),
		showProgress: showProgress,
	}
	if opts.outputPath != "" {
		s.sink = &output.FileSink{Path: opts.outputPath}
	}

	if showProgress {
		output.WriteHeader(os.Stderr, opts.noColor)
	}
	return s
}

func (s *session) stages(bingKey string) (*recon.Stages, error) {
	return recon.NewStages(recon.Options{
		Resolvers: s.opts.resolvers,
		Timeout:   s.opts.timeout,
		Workers:   s.opts.threads,
		Rate:      s.opts.rate,
		UserAgent: s.userAgent,
		BingKey:   bingKey,
		Log:       s.log,
	})
}

// sanitizeBase validates one base word, warning when periods were removed.
func (s *session) sanitizeBase(base string) (string, error) {
	clean, stripped, err := permute.SanitizeBase(base)
	if err != nil {
		return "", fmt.Errorf("invalid base %q: %w", base, err)
	}
	if stripped {
		s.progress.Warn(fmt.Sprintf("Invalid base parameter: %s. Removing periods from base.", base))
	}
	return clean, nil
}

// finish prints timing, or the interrupted notice when ctx was cancelled.
func (s *session) finish(ctx context.Context) {
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "\nInterrupted, partial results follow.")
	}
	if s.showProgress {
		s.progress.Complete()
	}
}
