// Command wordfill renders DOCX templates from the command line.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app holds the global flags and what PersistentPreRunE builds from them.
type app struct {
	configPath string
	envFile    string
	verbose    bool

	zap    *zap.Logger
	logger *wordfill.Logger
	config *wordfill.Config
	engine *wordfill.Engine
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "wordfill",
		Short: "Fill DOCX templates with data",
		Long: `wordfill fills Word templates with data from JSON, YAML or SQLite.

Templates use {{placeholders}}, @if/@endif and @foreach/@endforeach
paragraph blocks, and table rows that repeat per list element.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "Environment file to load (default: .env when present)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		newRenderCmd(a),
		newBatchCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newValidateCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads the environment file, the configuration and the logger, in
// that order, so WORDFILL_* variables from the file take effect.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := loadEnv(a.envFile); err != nil {
		return err
	}

	config := wordfill.ConfigFromEnvironment()
	if a.configPath != "" {
		loaded, err := wordfill.LoadConfigFile(a.configPath)
		if err != nil {
			return err
		}
		config = loaded
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if a.verbose {
		config.LogLevel = "debug"
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if a.verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	z, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.zap = z
	a.logger = wordfill.NewZapLogger(z)
	a.config = config
	wordfill.SetLogger(a.logger)
	a.engine = wordfill.New(wordfill.WithConfig(config), wordfill.WithLogger(a.logger))
	return nil
}

func (a *app) teardown() {
	if a.engine != nil {
		_ = a.engine.Close()
	}
	if a.zap != nil {
		_ = a.zap.Sync()
	}
}

// loadEnv loads path, or .env when path is empty and the file exists.
func loadEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wordfill %s\n", version)
			return err
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
