package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	yaml "gopkg.in/yaml.v2"

	"github.com/ThreeDotsLabs/postboard"
	"github.com/ThreeDotsLabs/postboard/client"
	"github.com/ThreeDotsLabs/watermill"
)

var cfgFile string

// logger is used by postboard components, infrastructureLogger by the Pub/Sub and router.
var logger watermill.LoggerAdapter
var infrastructureLogger watermill.LoggerAdapter
var logOutput io.WriteCloser

var rootCmd = &cobra.Command{
	Use:   "postboard",
	Short: "Browse and edit posts of a jsonplaceholder-style API.",
	Long: `Browse and edit posts of a jsonplaceholder-style API.

Without a subcommand, an interactive terminal UI is started.
The list, create, update and delete subcommands run a single operation and print the result.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLoggers(); err != nil {
			return err
		}

		if err := checkRequiredFlags(cmd.Flags()); err != nil {
			return err
		}

		writeConfig := viper.GetString("write-config")
		if writeConfig != "" {
			settings := viper.AllSettings()
			delete(settings, "write-config")
			delete(settings, "config")
			b, err := yaml.Marshal(settings)
			if err != nil {
				return errors.Wrap(err, "could not marshal config to yaml")
			}

			if err := os.WriteFile(writeConfig, b, 0644); err != nil {
				return errors.Wrap(err, "could not write config file")
			}
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logOutput == nil {
			return nil
		}
		err := logOutput.Close()
		logOutput = nil
		return err
	},
	RunE: runUI,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().SortFlags = false

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.postboard.yaml)")

	apiFlags := pflag.NewFlagSet("api", pflag.ExitOnError)
	apiFlags.String("base-url", client.DefaultBaseURL, "The base URL of the posts API")
	ensure(viper.BindPFlag("base-url", apiFlags.Lookup("base-url")))

	apiFlags.Duration("timeout", client.DefaultTimeout, "The timeout of a single request")
	ensure(viper.BindPFlag("timeout", apiFlags.Lookup("timeout")))

	apiFlags.Int("user-id", postboard.DefaultUserID, "The userId sent with created and updated posts")
	ensure(viper.BindPFlag("user-id", apiFlags.Lookup("user-id")))

	rootCmd.PersistentFlags().AddFlagSet(apiFlags)

	outputFlags := pflag.NewFlagSet("output", pflag.ExitOnError)
	outputFlags.BoolP("log", "l", false, "If true, the logger output is enabled. No logger output otherwise.")
	ensure(viper.BindPFlag("log", outputFlags.Lookup("log")))

	outputFlags.BoolP("debug", "d", false, "If true, debug output is enabled from the logger")
	ensure(viper.BindPFlag("debug", outputFlags.Lookup("debug")))

	outputFlags.Bool("trace", false, "If true, trace output is enabled from the logger")
	ensure(viper.BindPFlag("trace", outputFlags.Lookup("trace")))

	outputFlags.String("log-format", postboard.LogFormatText, "The format of the logger output: text or json")
	ensure(viper.BindPFlag("log-format", outputFlags.Lookup("log-format")))

	outputFlags.String("log-file", "", "Append the logger output to this file instead of stderr")
	ensure(viper.BindPFlag("log-file", outputFlags.Lookup("log-file")))

	outputFlags.String("metrics-addr", "", "If set, Prometheus metrics are served on this address, e.g. :8081")
	ensure(viper.BindPFlag("metrics-addr", outputFlags.Lookup("metrics-addr")))

	outputFlags.String("write-config", "", "Write the config of the current command as yaml to the specified path")
	ensure(viper.BindPFlag("write-config", outputFlags.Lookup("write-config")))

	rootCmd.PersistentFlags().AddFlagSet(outputFlags)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(".postboard")
	}

	// POSTBOARD_BASE_URL overrides base-url and so on
	viper.SetEnvPrefix("postboard")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setupLoggers() error {
	config := postboard.LogConfig{
		Enabled: viper.GetBool("log"),
		Debug:   viper.GetBool("debug"),
		Trace:   viper.GetBool("trace"),
		Format:  viper.GetString("log-format"),
	}

	if logFile := viper.GetString("log-file"); logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return errors.Wrap(err, "could not open log file")
		}
		logOutput = f
		config.Output = f
	}

	var err error
	logger, err = postboard.NewLogger(config)
	if err != nil {
		return err
	}

	infrastructureLogger, err = postboard.NewInfrastructureLogger(config)
	return err
}

func requestTimeout() time.Duration {
	return viper.GetDuration("timeout")
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}

func checkRequiredFlags(flags *pflag.FlagSet) error {
	requiredError := false
	flagName := ""

	flags.VisitAll(func(flag *pflag.Flag) {
		requiredAnnotation := flag.Annotations[cobra.BashCompOneRequiredFlag]
		if len(requiredAnnotation) == 0 {
			return
		}

		flagRequired := requiredAnnotation[0] == "true"

		if flagRequired && !flag.Changed {
			requiredError = true
			flagName = flag.Name
		}
	})

	if requiredError {
		return errors.New("Required flag `" + flagName + "` has not been set")
	}

	return nil
}
