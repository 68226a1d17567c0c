package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/egvia/egvia/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Egvia configuration",
	Long: `Manage Egvia configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (EGVIA_*)
3. Config file (~/.egvia/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, the config file, and environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		configFile := viper.ConfigFileUsed()
		if configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		fmt.Println(string(yamlData))

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.egvia/config.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configDir := home + "/.egvia"
		configPath := configDir + "/config.yaml"

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'egvia config show' to view it, or delete it first to recreate", configPath)
		}

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}

		f, err := os.Create(configPath)
		if err != nil {
			return fmt.Errorf("error creating config file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close config file: %w", closeErr)
			}
		}()

		header := `# Egvia Configuration File
#
# Configuration hierarchy (highest to lowest priority):
#   1. CLI flags
#   2. Environment variables (EGVIA_*)
#   3. This config file
#   4. Built-in defaults

`
		if _, err := f.WriteString(header); err != nil {
			return fmt.Errorf("error writing config: %w", err)
		}

		yamlData, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		if _, err := f.Write(yamlData); err != nil {
			return fmt.Errorf("error writing config: %w", err)
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  egvia config show\n\n")

		return nil
	},
}

// loadConfig merges viper state (config file plus EGVIA_* env vars) onto
// the built-in defaults. Only keys that were actually set override.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	setInt := func(key string, dst *int) {
		if viper.IsSet(key) {
			*dst = viper.GetInt(key)
		}
	}
	setString := func(key string, dst *string) {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}
	setBool := func(key string, dst *bool) {
		if viper.IsSet(key) {
			*dst = viper.GetBool(key)
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if viper.IsSet(key) {
			*dst = viper.GetDuration(key)
		}
	}

	setString("server.host", &cfg.Server.Host)
	setInt("server.port", &cfg.Server.Port)
	setDuration("server.read_timeout", &cfg.Server.ReadTimeout)
	setDuration("server.write_timeout", &cfg.Server.WriteTimeout)
	setInt("server.body_limit", &cfg.Server.BodyLimit)

	setBool("retrieval.enable_clinvar", &cfg.Retrieval.EnableClinVar)
	setInt("retrieval.max_records", &cfg.Retrieval.MaxRecords)
	setInt("retrieval.max_attempts", &cfg.Retrieval.MaxAttempts)
	setDuration("retrieval.retry_wait", &cfg.Retrieval.RetryWait)
	setDuration("retrieval.timeout", &cfg.Retrieval.Timeout)
	if viper.IsSet("retrieval.requests_per_second") {
		cfg.Retrieval.RequestsPerSecond = viper.GetFloat64("retrieval.requests_per_second")
	}
	setInt("retrieval.burst", &cfg.Retrieval.Burst)

	setBool("cache.enabled", &cfg.Cache.Enabled)
	setDuration("cache.ttl", &cfg.Cache.TTL)
	setDuration("cache.cleanup_interval", &cfg.Cache.CleanupInterval)

	setString("logging.level", &cfg.Logging.Level)
	setString("logging.format", &cfg.Logging.Format)
	setString("logging.output_path", &cfg.Logging.OutputPath)

	if verbose {
		cfg.Logging.Level = "debug"
	}

	return cfg
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
