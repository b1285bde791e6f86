// Package cmd provides the keystone command-line interface.
//
// Configuration is read, highest priority first, from command-line flags,
// KEYSTONE_<SECTION>_<OPTION> environment variables (KEYSTONE_SERVER_PORT,
// KEYSTONE_DEVELOPMENT_HOT_RELOAD, ...), and a YAML configuration file:
// the --config flag, else KEYSTONE_CONFIG_FILE, else .keystone.yml in the
// current directory.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/keystone/internal/config"
	"github.com/conneroisu/keystone/internal/logging"
)

const defaultConfigName = ".keystone"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "keystone",
	Short: "Serve web applications made of files and templates",
	Long: `Keystone serves an application directory over HTTP. Request paths map
onto files: static files are sent as they are, and .ks templates are
rendered. A template holds Go view code, a ---- separator line, and
Jinja-style markup. Directories and templates named %param capture
path segments as parameters.

Quick Start:
  keystone serve ./site            Serve ./site on port 5000
  keystone serve -d ./site         Serve with debug output and live reload
  keystone check ./site            Compile every template
  keystone configure heroku ./site Write deployment files`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .keystone.yml, can also use KEYSTONE_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig points viper at the configuration file and environment.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("KEYSTONE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(defaultConfigName)
	}

	viper.SetEnvPrefix("KEYSTONE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing or unreadable file leaves the defaults in place.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configPath names the configuration file for error messages.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}

	return defaultConfigName + ".yml"
}

func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewLogger(cfg.LoggerConfig())
}
