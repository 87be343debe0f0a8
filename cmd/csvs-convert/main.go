package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/kindly/csvs-convert/internal/config"
	"github.com/kindly/csvs-convert/internal/convertutil"
	"github.com/kindly/csvs-convert/internal/descriptor"
	"github.com/kindly/csvs-convert/internal/model"
	"github.com/kindly/csvs-convert/pkg/csvsconvert"
)

// Version information set by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "csvs-convert",
	Short: "csvs-convert infers schemas and statistics from CSV files and converts them to other formats.",
	Long:  `A describer and converter for tabular CSV data: schema inference, summary statistics and cross-file foreign key detection, with SQL, Parquet, XLSX and zip archive output.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "init" {
			slog.Debug("skipping configuration loading for init command")
			return nil
		}

		configPath, _ := cmd.Flags().GetString("config")
		loadedCfg, err := config.Load(configPath)
		if err != nil {
			wrapped := convertutil.WrapError(err, "failed to load configuration", slog.String("config_path", configPath))
			var unknownField *config.ErrUnknownField
			if errors.As(err, &unknownField) {
				convertutil.LogError(convertutil.Logger, wrapped)
				os.Exit(78)
			}
			convertutil.LogError(convertutil.Logger, wrapped)
			os.Exit(1)
		}
		appConfig = loadedCfg
		convertutil.SetLevel(parseLevel(appConfig.Logging.Level))
		slog.Debug("configuration loaded", "path", configPath)
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default csvs-convert.yml configuration file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		if err := config.WriteDefaultConfig(path); err != nil {
			wrapped := convertutil.WrapError(err, "failed to write default config", slog.String("path", path))
			convertutil.LogError(convertutil.Logger, wrapped)
			return wrapped
		}
		slog.Info("default configuration written", "path", path)
		return nil
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe <paths...>",
	Short: "Infer schemas and statistics for one or more CSV files.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := optionsFromFlags(cmd)

		pkg, err := csvsconvert.DescribeFiles(context.Background(), args, opts)
		var describeErr error
		if err != nil {
			wrapped := convertutil.WrapError(err, "describe failed")
			convertutil.LogError(convertutil.Logger, wrapped)
			if pkg == nil {
				return wrapped
			}
			slog.Warn("describe completed with errors; emitting partial result", "error", err)
			describeErr = wrapped
		}

		out, _ := cmd.Flags().GetString("output")
		if err := writeDescriptor(pkg, out); err != nil {
			return err
		}
		return describeErr
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert <paths...>",
	Short: "Describe CSV files and convert them to another format.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("to")
		output, _ := cmd.Flags().GetString("output")
		dsn, _ := cmd.Flags().GetString("dsn")
		if format == "" {
			return convertutil.NewError("--to is required, one of sql|sqlite|mysql|postgres|parquet|xlsx|zip")
		}

		convOpts := csvsconvert.ConvertOptions{
			Options: optionsFromFlags(cmd),
			Format:  csvsconvert.Format(format),
			Output:  output,
			DSN:     dsn,
		}

		_, err := csvsconvert.ConvertFiles(context.Background(), args, convOpts)
		if err != nil {
			wrapped := convertutil.WrapError(err, "convert failed")
			convertutil.LogError(convertutil.Logger, wrapped)
			return wrapped
		}
		slog.Info("convert completed", "format", format, "output", output)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("csvs-convert %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", date)
		fmt.Printf("  Go version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

// optionsFromFlags builds the describer Options for this invocation: flag
// values override the loaded config's Describe section, matching the
// teacher's own flag-overrides-file precedence.
func optionsFromFlags(cmd *cobra.Command) csvsconvert.Options {
	opts := csvsconvert.Options{ExactThreshold: 0}
	if appConfig != nil {
		opts = csvsconvert.FromConfig(appConfig)
	}

	if v, _ := cmd.Flags().GetInt("threads"); v > 0 {
		opts.Threads = v
	}
	if opts.Threads <= 0 {
		opts.Threads = runtime.NumCPU()
	}
	if v, _ := cmd.Flags().GetString("delimiter"); v != "" {
		opts.Delimiter = []rune(v)[0]
	}
	if v, _ := cmd.Flags().GetString("quote"); v != "" {
		opts.Quote = []rune(v)[0]
	}
	if appConfig == nil {
		opts.Stats = true
	}
	if noStats, _ := cmd.Flags().GetBool("no-stats"); noStats {
		opts.Stats = false
	}
	if v, _ := cmd.Flags().GetBool("force-string"); v {
		opts.ForceString = true
	}
	if v, _ := cmd.Flags().GetInt("sample-size"); v > 0 {
		opts.SampleSize = v
	}
	if v, _ := cmd.Flags().GetBool("foreign-keys"); v {
		opts.ForeignKeys = true
	}
	return opts
}

func writeDescriptor(pkg *model.Package, outputPath string) error {
	out := os.Stdout
	if outputPath != "" && outputPath != "-" {
		f, err := os.Create(outputPath)
		if err != nil {
			return convertutil.WrapError(err, "creating output file", slog.String("path", outputPath))
		}
		defer f.Close()
		out = f
	}
	return descriptor.Emit(out, pkg)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "path to the configuration file")
	initCmd.Flags().StringP("file", "f", config.DefaultConfigPath, "path to write the configuration file")

	for _, cmd := range []*cobra.Command{describeCmd, convertCmd} {
		cmd.Flags().IntP("threads", "t", 0, "worker threads (defaults to the configured value, or NumCPU)")
		cmd.Flags().String("delimiter", "", "field delimiter (defaults to sniffed)")
		cmd.Flags().String("quote", "", "quote character (defaults to \")")
		cmd.Flags().Bool("no-stats", false, "skip statistics collection")
		cmd.Flags().Bool("force-string", false, "disable schema inference, treat every field as a string")
		cmd.Flags().Int("sample-size", 0, "use only the first N rows per resource for type inference; statistics cover every row (0 means all rows)")
		cmd.Flags().Bool("foreign-keys", false, "detect cross-resource foreign keys")
		cmd.Flags().StringP("output", "o", "", "output path (- or unset for stdout, where supported)")
	}
	convertCmd.Flags().String("to", "", "target format: sql|sqlite|mysql|postgres|parquet|xlsx|zip")
	convertCmd.Flags().String("dsn", "", "destination DSN for a direct database load (sqlite/mysql/postgres only)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ce *convertutil.ConvertError
		if !errors.As(err, &ce) {
			convertutil.LogError(convertutil.Logger, convertutil.WrapError(err, "command failed"))
		}
		os.Exit(1)
	}
}
