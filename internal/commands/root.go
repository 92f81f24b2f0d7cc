// internal/commands/root.go
package hogbench

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/hogbench/internal/appconfig"
	"github.com/mwiater/hogbench/internal/logging"
	"github.com/mwiater/hogbench/internal/question"
)

// Process exit codes. Anything else surfaces as 1.
const (
	ExitOK                 = 0
	ExitUsage              = 2
	ExitValidation         = 3
	ExitInsufficientSource = 4
)

// ExitError carries a specific process exit code up to Execute.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

func usageErrorf(format string, args ...any) error {
	return &ExitError{Code: ExitUsage, Err: fmt.Errorf(format, args...)}
}

var (
	cfgFile       string
	envFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "hogbench",
	Short: "hogbench — long-context recall benchmark for chat-completion LLMs",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("load env file %s: %w", envFile, err)
			}
		} else {
			_ = godotenv.Load()
		}

		if err := ensureConfigLoaded(); err != nil {
			return err
		}
		bindEnvironment()

		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = viper.ConfigFileUsed()
		if cmd.Flags().Changed("debug") {
			cfg.Debug, _ = cmd.Flags().GetBool("debug")
		}
		if logFile, _ := cmd.Flags().GetString("logFile"); logFile != "" {
			cfg.LogFile = logFile
		}
		currentConfig = &cfg

		if err := logging.Init(cfg.LogFilePath()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

// Execute runs the CLI and maps typed errors onto process exit codes.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)
	rootCmd.SilenceUsage = true

	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var checkErr *question.CheckError
	if errors.As(err, &checkErr) {
		return ExitValidation
	}
	return 1
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (e.g., config/config.json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (defaults to ./.env when present)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug output")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("logFile"))
}

// initConfig points viper at the configured file, if any.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config file when one is present.
func ensureConfigLoaded() error {
	if cfgFile == "" {
		return nil
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// bindEnvironment wires the recognized environment variables and defaults.
func bindEnvironment() {
	_ = viper.BindEnv("api_key", "OPENAI_API_KEY")
	_ = viper.BindEnv("base_url", "OPENAI_BASE_URL")
	_ = viper.BindEnv("model_name", "MODEL_NAME")
	_ = viper.BindEnv("temperature", "DEFAULT_TEMPERATURE")
	_ = viper.BindEnv("max_tokens", "DEFAULT_MAX_TOKENS")
	_ = viper.BindEnv("timeout", "DEFAULT_TIMEOUT")
	_ = viper.BindEnv("concurrency", "DEFAULT_CONCURRENCY")
	_ = viper.BindEnv("retry_times", "DEFAULT_RETRY_TIMES")
	_ = viper.BindEnv("retry_delay", "DEFAULT_RETRY_DELAY")

	viper.SetDefault("base_url", "https://openrouter.ai/api/v1")
	viper.SetDefault("temperature", 0.7)
	viper.SetDefault("max_tokens", 2000)
	viper.SetDefault("timeout", 60)
	viper.SetDefault("concurrency", 5)
	viper.SetDefault("retry_times", 3)
	viper.SetDefault("retry_delay", 1)
}

// GetConfig returns the loaded application configuration.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
