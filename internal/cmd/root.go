package cmd

import (
	"fmt"
	"io"

	"github.com/Iron-Ham/transferwindow/internal/cmd/config"
	appconfig "github.com/Iron-Ham/transferwindow/internal/config"
	"github.com/Iron-Ham/transferwindow/internal/errors"
	"github.com/Iron-Ham/transferwindow/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "transferwindow",
	Short: "Arbitrate competing claims on a single resource",
	Long: `transferwindow lets several claimants race to claim one resource.
Exactly one claim wins; the record in the configured store always matches
what the process believes, and every step of every attempt is reported as
it happens.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and reports any error on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		reportError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

// reportError prints err for the person at the terminal. Critical errors
// are labelled fatal; store failures that may clear up get a retry hint and
// internal errors point at the log.
func reportError(w io.Writer, err error) {
	if errors.IsCanceled(err) {
		fmt.Fprintln(w, "Interrupted.")
		return
	}

	label := "Error"
	if errors.GetSeverity(err) >= errors.SeverityCritical {
		label = "Fatal"
	}
	fmt.Fprintf(w, "%s: %v\n", label, err)

	switch {
	case errors.IsRetryable(err):
		fmt.Fprintln(w, "The store may be temporarily unavailable; try again.")
	case !errors.IsUserFacing(err):
		fmt.Fprintf(w, "Details are in %s in the data directory.\n", logging.LogFileName)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.config/transferwindow/config.yaml)")

	config.Register(rootCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	appconfig.SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(appconfig.ConfigDir())
		viper.AddConfigPath(".")
	}

	// e.g. TRANSFERWINDOW_STORE_DRIVER for store.driver
	appconfig.BindEnv()

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
