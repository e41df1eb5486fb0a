package main

import (
	"io"
	"os"
	"strings"

	"github.com/go-go-golems/grokker/cmd/grokker/cmds"
	settings "github.com/go-go-golems/grokker/pkg/steps/ai/settings/grok"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

func newRootCommand() (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:   "grokker",
		Short: "grokker talks to Grok through an X web session",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			return setupLogging()
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config file (default ~/.grokker/config.yaml)")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (json, text)")
	pf.String("log-file", "", "Also write logs to this file")
	pf.Bool("verbose", false, "Log at debug level and trace router events")

	// session flags, also read from the config file and GROKKER_* variables
	pf.String(settings.KeyCookies, "", "Cookie header of a logged-in x.com session (must contain ct0)")
	pf.String(settings.KeyLang, "", "Value of the x-twitter-client-language header")
	pf.String(settings.KeyModel, "", "Model to use")
	pf.Int(settings.KeyTimeout, 0, "HTTP timeout in seconds (0 keeps the default)")

	historyCmd, err := cmds.NewHistoryCommand()
	if err != nil {
		return nil, err
	}
	uploadCmd, err := cmds.NewUploadCommand()
	if err != nil {
		return nil, err
	}
	promptsCmd, err := cmds.NewPromptsCommand()
	if err != nil {
		return nil, err
	}

	rootCmd.AddCommand(
		cmds.NewNewCommand(),
		cmds.NewAskCommand(),
		historyCmd,
		uploadCmd,
		promptsCmd,
	)
	return rootCmd, nil
}

// loadConfig layers flags over GROKKER_* variables over the config file.
func loadConfig(cmd *cobra.Command) error {
	viper.SetEnvPrefix("grokker")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return errors.Wrap(err, "could not bind flags")
	}

	if configPath := viper.GetString("config"); configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.grokker")
		if dir, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(dir + "/grokker")
		}
	}

	err := viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return nil
	}
	return errors.Wrap(err, "could not read config")
}

func setupLogging() error {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return errors.Wrap(err, "invalid --log-level")
	}
	if viper.GetBool("verbose") && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = os.Stderr
	if viper.GetString("log-format") == "text" {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	if logFile := viper.GetString("log-file"); logFile != "" {
		w = io.MultiWriter(w, zerolog.ConsoleWriter{
			NoColor: true,
			Out: &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
			},
		})
	}
	log.Logger = log.Output(w)

	log.Debug().Str("config", viper.ConfigFileUsed()).Msg("Loaded configuration")
	return nil
}

func main() {
	rootCmd, err := newRootCommand()
	cobra.CheckErr(err)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
