package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/keystone/internal/config"
)

// ServerFlags are the flags shared by commands that run the server.
type ServerFlags struct {
	Port      int
	Host      string
	Debug     bool
	HotReload bool
}

// serverFlagKeys maps flag names to configuration keys.
var serverFlagKeys = map[string]string{
	"port":       "server.port",
	"host":       "server.host",
	"debug":      "development.debug",
	"hot-reload": "development.hot_reload",
}

func addServerFlags(cmd *cobra.Command, flags *ServerFlags) {
	cmd.Flags().IntVarP(&flags.Port, "port", "p", config.DefaultPort, "Port to serve on")
	cmd.Flags().StringVarP(&flags.Host, "host", "H", config.DefaultHost, "Host to bind to")
	cmd.Flags().BoolVarP(&flags.Debug, "debug", "d", false, "Show errors in pages, log at debug level and reload on change")
	cmd.Flags().BoolVar(&flags.HotReload, "hot-reload", false, "Reload browsers when application files change")
}

// bindServerFlags makes explicitly set flags override the configuration.
func bindServerFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range serverFlagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			return fmt.Errorf("flag %q is not defined", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", name, err)
		}
	}

	return nil
}
