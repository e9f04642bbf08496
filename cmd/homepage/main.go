package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/harrisjose/homepage/internal/config"
	"github.com/harrisjose/homepage/internal/content"
	"github.com/harrisjose/homepage/internal/database"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     = zap.NewNop()
	logLevel   = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "homepage",
	Short:   "Personal site: articles, notes and a theme switcher",
	Long:    "homepage serves a Markdown-driven personal site, imports bookmarks as notes, and manages the dark/light theme preference.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger()
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		logger = l
		zap.ReplaceGlobals(logger)

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if !verbose {
			if err := logLevel.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
				return fmt.Errorf("parsing logging.level: %w", err)
			}
		}
		logger.Debug("config loaded", zap.String("path", path))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		logLevel.SetLevel(zap.DebugLevel)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = logLevel
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if !verbose {
		zcfg.DisableCaller = true
		zcfg.DisableStacktrace = true
	}
	return zcfg.Build()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(articlesCmd)
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(themeCmd)
	rootCmd.AddCommand(telegramCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("homepage", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/homepage/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to set your profile, content directory and note feeds.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and content status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n", db.Path())
		fmt.Printf("Today: %s\n\n", database.GetToday())

		fmt.Printf("Content (%s):\n", cfg.Content.Dir)
		if bundle, err := loadBundle(); err != nil {
			fmt.Printf("  Error: %v\n", err)
		} else {
			articles := bundle.Articles()
			drafts := 0
			for _, a := range articles {
				if a.Draft {
					drafts++
				}
			}
			fmt.Printf("  Articles: %d\n", len(articles)-drafts)
			fmt.Printf("  Drafts: %d\n", drafts)
		}

		fmt.Println("\nNotes:")
		fmt.Printf("  Total collected: %d\n", stats.Notes)
		fmt.Printf("  With content: %d\n", stats.NotesWithContent)
		fmt.Printf("  Sync runs: %d\n", stats.SyncRuns)
		if last, _ := db.GetLastSync(); last != nil {
			fmt.Printf("  Last sync: %s (%d new)\n", database.FormatStoredDate(last.StartedAt), last.NotesNew)
		}

		fmt.Println("\nPreferences:")
		fmt.Printf("  Stored: %d\n", stats.Preferences)
		return nil
	},
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "homepage.db")
	return database.Open(dbPath, database.WithLogger(logger))
}

func loadBundle() (*content.Bundle, error) {
	bundle := content.NewBundle(os.DirFS(cfg.Content.Dir), logger)
	if err := bundle.Reload(); err != nil {
		return nil, fmt.Errorf("loading content from %s: %w", cfg.Content.Dir, err)
	}
	return bundle, nil
}
