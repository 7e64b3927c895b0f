// Package cli wires the oceand subcommands: scrape, analyze, load,
// serve, enrich, and the config helpers.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "oceand",
	Short: "Endangered Ocean - NOAA species depth & threat pipeline",
	Long: `Endangered Ocean collects NOAA Fisheries endangered and threatened
species profiles and mines their narratives for structured data:

- Habitat depth in meters, from explicit statements in the text or from
  habitat-zone keywords (reef, kelp forest, abyssal, ...)
- Threat categories, normalized from the free-text threats sections

The pipeline is polite by default: pages are cached between runs,
robots.txt is honored, and live fetches are rate limited. Scraped data
flows into JSON artifacts, then optionally into Postgres, where a small
read API serves it to the frontend.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("oceand v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.endangered-ocean/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig locates the config file. Environment variables and
// defaults are layered on later by config.Load.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.endangered-ocean")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// newLogger builds the interactive logger: console lines on stderr,
// debug level with --verbose.
func newLogger(component string) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(logLevel()).
		With().Timestamp().Str("component", component).Logger()
}

// newServerLogger emits JSON lines for long-running commands whose
// output gets collected rather than read.
func newServerLogger(component string) zerolog.Logger {
	return zerolog.New(os.Stderr).
		Level(logLevel()).
		With().Timestamp().Str("component", component).Logger()
}

func logLevel() zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
