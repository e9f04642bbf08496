package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harrisjose/homepage/internal/portal"
	"github.com/harrisjose/homepage/internal/theme"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Show, toggle or watch the theme preference",
}

// desktopSignal connects to the desktop portal, falling back to a fixed
// light signal when no session bus is available.
func desktopSignal() (theme.Signal, func()) {
	s, err := portal.Connect(logger)
	if err != nil {
		logger.Debug("desktop color scheme unavailable, assuming light", zap.Error(err))
		return theme.FixedSignal(false), func() {}
	}
	return s, func() {
		if err := s.Close(); err != nil {
			logger.Debug("closing portal signal", zap.Error(err))
		}
	}
}

var themeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the resolved theme",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		sig, closeSig := desktopSignal()
		defer closeSig()

		store := db.Preferences(logger)
		t := theme.Resolve(store, sig)
		source := "desktop"
		if _, ok := theme.Stored(store); ok {
			source = "stored"
		}
		fmt.Printf("%s (%s)\n", t, source)
		return nil
	},
}

var themeToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Flip the theme and persist it",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		sig, closeSig := desktopSignal()
		defer closeSig()

		c := theme.New(db.Preferences(logger), sig, nil, logger)
		fmt.Println(c.Toggle())
		return nil
	},
}

var themeWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the theme attribute as it changes until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		sig, closeSig := desktopSignal()
		defer closeSig()

		doc := theme.DocumentFunc(func(t theme.Theme) {
			fmt.Printf("%s=%s\n", theme.Attribute, t)
		})
		c := theme.New(db.Preferences(logger), sig, doc, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c.Activate()
		defer c.Deactivate()

		<-ctx.Done()
		return nil
	},
}

var themeResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the stored preference and follow the desktop again",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeletePreference(theme.StorageKey); err != nil {
			return fmt.Errorf("clearing preference: %w", err)
		}

		sig, closeSig := desktopSignal()
		defer closeSig()

		fmt.Printf("%s (desktop)\n", theme.Resolve(db.Preferences(logger), sig))
		return nil
	},
}

func init() {
	themeCmd.AddCommand(themeGetCmd)
	themeCmd.AddCommand(themeResetCmd)
	themeCmd.AddCommand(themeToggleCmd)
	themeCmd.AddCommand(themeWatchCmd)
}
