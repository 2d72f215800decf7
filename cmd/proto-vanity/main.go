package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/screa/proto-vanity-miner/internal/config"
	"github.com/screa/proto-vanity-miner/internal/crypto"
	logpkg "github.com/screa/proto-vanity-miner/internal/logger"
	"github.com/screa/proto-vanity-miner/internal/nonce"
	"github.com/screa/proto-vanity-miner/internal/proto"
	"github.com/screa/proto-vanity-miner/internal/version"
	minerpkg "github.com/screa/proto-vanity-miner/pkg/miner"
	"github.com/screa/proto-vanity-miner/pkg/report"
	"github.com/screa/proto-vanity-miner/pkg/targets"
)

var (
	cfg    = config.NewConfig()
	logger *logpkg.Logger
)

func main() {
	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	*cfg = *config.NewConfig()

	var rootCmd = &cobra.Command{
		Use:   "proto-vanity <proto_file> <vanity_string>",
		Short: "Vanity protocol hash miner",
		Long: `Searches for a nonce that gives a protocol source file a vanity hash.
The nonce is written into the last "(* Vanity nonce: ... *)" comment of the
file; every protocol hash starting with <vanity_string> is reported.`,
		Args:          cobra.ExactArgs(2),
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.ProtoFile, cfg.Vanity = args[0], args[1]
			return runMiner(cmd.Context(), stdout)
		},
	}

	rootCmd.Flags().BoolVarP(&cfg.IgnoreCase, "ignore-case", "i", false, "Perform case-insensitive matching")
	rootCmd.Flags().IntVarP(&cfg.Workers, "thread-count", "j", runtime.NumCPU(), "Number of worker goroutines")
	rootCmd.Flags().VarP(&cfg.Format, "output-format", "f", "Output format")
	rootCmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log periodic progress")
	rootCmd.Flags().StringVarP(&cfg.LogFile, "log-file", "l", "", "Log file for progress tracking (default: stderr)")
	rootCmd.Flags().IntVar(&cfg.LogInterval, "log-interval", config.DefaultLogInterval, "Progress logging interval in seconds")
	rootCmd.Flags().StringVar(&cfg.Locale, "locale", "", "Locale for number grouping (default: from LC_ALL/LC_NUMERIC/LANG)")

	rootCmd.AddCommand(newHashCmd(stdout), newCheckCmd(stdout), newVersionCmd(stdout))
	return rootCmd
}

func runMiner(ctx context.Context, stdout io.Writer) error {
	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Setup logging
	closeLog, err := setupLogging()
	if err != nil {
		return err
	}
	defer closeLog()

	if err := cfg.Load(); err != nil {
		return err
	}

	var sink report.Sink
	if cfg.Format == config.FormatCSV {
		sink = report.NewCSV(stdout)
	} else {
		sink = report.NewHuman(stdout, cfg.LocaleTag())
	}

	miner, err := minerpkg.NewMiner(cfg, logger, report.New(sink))
	if errors.Is(err, targets.ErrInvalidInput) {
		return err
	}

	logger.Printf("Looking for vanity hash %s for %s using %d threads", cfg.Vanity, cfg.ProtoFile, cfg.Workers)
	logger.Printf("Target: %s", cfg.GetTargetDescription())
	if miner != nil {
		logger.Printf("Vanity set: %s", miner.Targets())
	}
	if bad := targets.InvalidBase58Chars(cfg.Vanity); len(bad) > 0 {
		logger.Printf("Warning: %q can never match, Base58 has no %q", cfg.Vanity, string(bad))
	}

	current, hashErr := crypto.HashBlob(cfg.Data)
	if hashErr != nil {
		return hashErr
	}
	logger.Printf("Current hash: %s", current)

	if errors.Is(err, proto.ErrMarkerNotFound) {
		// Not a failure: there is simply nothing to mine.
		logger.Printf("Vanity comment line start '%s' is not found", nonce.Marker)
		return nil
	}
	if err != nil {
		return err
	}

	logger.Verbosef("Nonce insertion offset: %d", miner.Offset())
	return miner.Mine(ctx)
}

func setupLogging() (func(), error) {
	if cfg.LogFile != "" {
		// Log to file
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger = logpkg.NewWriter(file)
		logger.SetFlags(log.LstdFlags | log.Lmicroseconds)
		logger.SetVerbose(cfg.Verbose)
		return func() { file.Close() }, nil
	}

	// Log to stderr, keeping stdout for matches
	logger = logpkg.New()
	logger.SetFlags(log.LstdFlags)
	logger.SetVerbose(cfg.Verbose)
	return func() {}, nil
}

func newHashCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "hash <proto_file>",
		Short: "Print the current protocol hash of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.ReadProtoFile(args[0])
			if err != nil {
				return err
			}
			id, err := crypto.HashBlob(data)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, id)
			return nil
		},
	}
}

func newCheckCmd(stdout io.Writer) *cobra.Command {
	var ignoreCase bool
	cmd := &cobra.Command{
		Use:   "check <protocol_hash> [vanity_string]",
		Short: "Verify a protocol hash checksum and optionally its vanity prefix",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			digest, err := crypto.DecodeProtocolHash(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%s: valid, digest %x\n", id, digest)

			if len(args) < 2 {
				return nil
			}
			set, err := targets.Build(args[1], ignoreCase)
			if err != nil {
				return err
			}
			if !set.Matches(id) {
				return fmt.Errorf("%s does not start with %s", id, args[1])
			}
			fmt.Fprintf(stdout, "%s: matches %s\n", id, args[1])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&ignoreCase, "ignore-case", "i", false, "Perform case-insensitive matching")
	return cmd
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(stdout, version.String())
		},
	}
}
