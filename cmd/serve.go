package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/keystone/internal/config"
	"github.com/conneroisu/keystone/internal/errors"
	"github.com/conneroisu/keystone/internal/server"
)

var serveFlags ServerFlags

var serveCmd = &cobra.Command{
	Use:     "serve [app_dir]",
	Aliases: []string{"s"},
	Short:   "Serve a keystone application",
	Long: `Serve the application in app_dir, or the current directory.

Examples:
  keystone serve                       # Serve the current directory on port 5000
  keystone serve ./site -p 8080        # Serve ./site on port 8080
  keystone serve ./site -d             # Debug mode with live reload
  KEYSTONE_SERVER_PORT=80 keystone serve`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	addServerFlags(serveCmd, &serveFlags)
	if err := bindServerFlags(viper.GetViper(), serveCmd.Flags()); err != nil {
		panic(err)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	srv := server.New(cfg, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at http://%s\n", cfg.App.Dir, cfg.Addr())
	if cfg.Development.HotReload {
		fmt.Fprintln(cmd.OutOrStdout(), "Live reload is on; watching for changes")
	}

	if err := srv.Start(ctx); err != nil {
		if strings.Contains(err.Error(), "address already in use") || strings.Contains(err.Error(), "bind") {
			return errors.NewEnhancedError(
				fmt.Sprintf("Failed to start server on port %d", cfg.Server.Port),
				err,
				errors.ServerStartError(err, cfg.Server.Port, &errors.SuggestionContext{AppDir: cfg.App.Dir}),
			)
		}
		return err
	}

	return nil
}

// loadConfig reads the configuration, taking the application directory
// from args when given.
func loadConfig(args []string) (*config.Config, error) {
	if len(args) > 0 {
		viper.Set("app.dir", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		ctx := &errors.SuggestionContext{
			ConfigPath: configPath(),
			AppDir:     viper.GetString("app.dir"),
		}
		return nil, errors.NewEnhancedError(
			"Failed to load configuration",
			err,
			errors.ConfigurationError(err.Error(), ctx),
		)
	}

	return cfg, nil
}
