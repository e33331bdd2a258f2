package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"commoners/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error, including a failed build step.
	ExitCodeError = 1
	// ExitCodeConfig indicates the project configuration is invalid.
	ExitCodeConfig = 2
)

// settingsFile is the optional CLI settings file (default ~/.commoners.yaml).
var settingsFile string

// rootCmd represents the base command for the commoners application.
// Without a subcommand it runs the development loop.
var rootCmd = &cobra.Command{
	Use:   "commoners",
	Short: "Build and run cross-platform apps from one web project",
	Long: `commoners packages a web frontend and its backend services for the
web, as a progressive web app, as a desktop app, and for mobile.

Run without a subcommand to start the services and the frontend dev server.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runDev,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "commoners version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var collection *config.ConfigurationErrorCollection
	if errors.As(err, &collection) {
		return ExitCodeConfig
	}

	var single config.ConfigurationError
	if errors.As(err, &single) {
		return ExitCodeConfig
	}

	return ExitCodeError
}

// initSettings reads CLI defaults from the settings file and COMMONERS_*
// environment variables. Flags given on the command line take precedence.
func initSettings() {
	if settingsFile != "" {
		viper.SetConfigFile(settingsFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".commoners")
	}

	viper.SetEnvPrefix("COMMONERS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using settings file:", viper.ConfigFileUsed())
	}
}

// projectRoot returns the absolute project directory.
func projectRoot() (string, error) {
	root := viper.GetString("root")
	if root == "" {
		root = "."
	}
	return filepath.Abs(root)
}

func init() {
	cobra.OnInitialize(initSettings)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&settingsFile, "settings", "", "CLI settings file (default is $HOME/.commoners.yaml)")
	flags.String("root", ".", "Project directory")
	flags.String("config", "", "Project config file (default is commoners.config.{yaml,yml,json,toml} in the project directory)")
	flags.StringP("target", "t", "", "Target to run or build for (web, desktop, mobile, pwa)")
	flags.StringP("platform", "p", "", "Platform to build for (mac, windows, linux, ios, android; default is the host)")
	flags.String("out-dir", "", "Output directory (default is .commoners/dist)")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")

	for _, name := range []string{"root", "config", "target", "platform", "out-dir", "debug", "log-level", "log-format"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
