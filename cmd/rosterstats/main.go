// Package main is the offline command line for roster analysis. It runs the
// same analysis as the HTTP service against a local file and prints the
// report as JSON.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alem-hub/roster-insights/config"
	"github.com/alem-hub/roster-insights/internal/application/command"
	"github.com/alem-hub/roster-insights/internal/application/query"
	"github.com/alem-hub/roster-insights/internal/infrastructure/ingest"
	"github.com/alem-hub/roster-insights/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/roster-insights/internal/interface/http/handlers"
	"github.com/alem-hub/roster-insights/pkg/logger"
)

var (
	profilePath    string
	statisticsCSV  string
	conflictsCSV   string
	brokenPairsCSV string
	outputPath     string
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:           "rosterstats",
	Short:         "Analyze class-assignment rosters",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a roster file (.csv or .json) and print the report",
	Long: `Analyze a finished class assignment.

The report contains per-class statistics, mutual friendships split across
classes and students placed in the same class as someone they conflict with.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Read a password from stdin and print its bcrypt hash for ACCESS_PASSWORD_HASH",
	Args:  cobra.NoArgs,
	RunE:  runHashPassword,
}

func init() {
	analyzeCmd.Flags().StringVarP(&profilePath, "profile", "p", "", "YAML roster profile (defaults to the built-in schema)")
	analyzeCmd.Flags().StringVar(&statisticsCSV, "statistics-csv", "", "also write the statistics table as CSV to this path")
	analyzeCmd.Flags().StringVar(&conflictsCSV, "conflicts-csv", "", "also write the conflicting students table as CSV to this path")
	analyzeCmd.Flags().StringVar(&brokenPairsCSV, "broken-pairs-csv", "", "also write the broken friendships table as CSV to this path")
	analyzeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the report here instead of stdout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log analysis steps to stderr")

	rootCmd.AddCommand(analyzeCmd, hashPasswordCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logger.Nop()
	if verbose {
		log = logger.New(logger.Options{Output: cmd.ErrOrStderr(), Level: logger.LevelDebug, Format: logger.FormatText})
	}

	schema, err := config.LoadProfile(profilePath)
	if err != nil {
		return err
	}

	format, err := ingest.FormatFromPath(args[0])
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	table, err := ingest.Decode(format, f)
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	cfg := command.DefaultAnalyzeRosterHandlerConfig()
	cfg.Schema = schema
	cfg.MaxRows = 0
	handler := command.NewAnalyzeRosterHandler(memory.NewReportStore(), nil, log, cfg)

	res, err := handler.Handle(cmd.Context(), command.AnalyzeRosterCommand{Table: table})
	if err != nil {
		return err
	}

	exports := []struct {
		path string
		kind query.TableKind
	}{
		{statisticsCSV, query.TableStatistics},
		{conflictsCSV, query.TableConflicts},
		{brokenPairsCSV, query.TableBrokenPairs},
	}
	for _, e := range exports {
		if e.path == "" {
			continue
		}
		flat, err := query.FlatTable(res.Report, e.kind)
		if err != nil {
			return err
		}
		if err := writeFile(e.path, func(w io.Writer) error {
			return ingest.EncodeCSV(w, flat)
		}); err != nil {
			return fmt.Errorf("write %s: %w", e.kind, err)
		}
	}

	encode := func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Report)
	}
	if outputPath != "" {
		return writeFile(outputPath, encode)
	}
	return encode(cmd.OutOrStdout())
}

func runHashPassword(cmd *cobra.Command, _ []string) error {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("empty password")
	}

	hash, err := handlers.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
