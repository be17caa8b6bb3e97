// Command cmp-sim runs a CMP key generation followed by a threshold signature between
// simulated parties inside a single process.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "CMPSIM"

var rootCmd = &cobra.Command{
	Use:   "cmp-sim",
	Short: "Simulate CMP threshold ECDSA between local parties",
	Long: "Run a key generation between n parties, then sign a message with a subset of them.\n" +
		"Every flag can also be set through the environment (CMPSIM_THRESHOLD=2) or a config file.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := optionsFromViper()
		if err != nil {
			return err
		}
		logger := newLogger(viper.GetString("log-level"))
		report, err := simulate(cmd.Context(), opts, logger)
		if err != nil {
			return err
		}
		report.print(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (yaml, json or toml)")
	flags.Int("parties", 3, "Number of parties taking part in the key generation")
	flags.Int("threshold", 2, "Number of shares required to sign")
	flags.Int("signers", 0, "Number of parties signing (defaults to the threshold)")
	flags.String("message", "hello", "Message to sign, hashed with SHA-256")
	flags.String("derive", "", "Non-hardened BIP32 path applied to the key before signing, e.g. m/0/1")
	flags.String("export", "", "Directory where every party's key share is written")
	flags.String("log-level", "warn", "Log level: debug|info|warn|error")
	flags.Bool("metrics", false, "Print protocol metrics after the run")
	flags.Bool("recover", false, "Erase the last party's share after keygen, and restore it from the others")
}

// loadConfig binds the flags to viper, and reads the environment and the config file.
func loadConfig(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
