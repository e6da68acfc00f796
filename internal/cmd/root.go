package cmd

import (
	"strings"

	"github.com/Iron-Ham/gitqueue/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "gitqueue",
	Short: "Job queue stored in git commit history",
	Long: `gitqueue keeps a job queue in the commit history of a git repository.

Every queue message is an empty commit whose subject encodes the message
kind, the queue name and the job metadata, and whose body carries the
payload:

  📝🈺: build-queue: job.id.42
  📝👔: build-queue: job.id.42 job.ref.3f2a9c1
  📝✅: build-queue: job.id.42 job.ref.3f2a9c1

Commits whose subject does not start with 📝 are ignored, so a queue can
share a branch with ordinary work.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.config/gitqueue/config.yaml)")
	flags.StringP("repo", "C", "", "path to the git repository (default is the current directory)")
	flags.String("ref", "", "revision whose history holds the queue (default is HEAD)")
	flags.Int("max-count", 0, "read at most this many commits (0 reads the whole history)")
	flags.Bool("skip-malformed", false, "skip queue commits that fail to decode instead of failing")
	flags.StringP("output", "o", "", "output format: text, json or yaml")
	flags.String("color", "", "color text output: auto, always or never")

	bindFlags()
}

// bindFlags maps the global flags onto their configuration keys. Only flags
// set on the command line override the config file and environment.
func bindFlags() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("repository.path", flags.Lookup("repo"))
	_ = viper.BindPFlag("repository.ref", flags.Lookup("ref"))
	_ = viper.BindPFlag("repository.max_count", flags.Lookup("max-count"))
	_ = viper.BindPFlag("log.skip_malformed", flags.Lookup("skip-malformed"))
	_ = viper.BindPFlag("output.format", flags.Lookup("output"))
	_ = viper.BindPFlag("output.color", flags.Lookup("color"))
}

func initConfig() {
	// Bindings are lost when viper is reset, so renew them on every run.
	bindFlags()

	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/gitqueue")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("GITQUEUE")
	// Replace dots with underscores for nested keys in env vars
	// e.g., GITQUEUE_REPOSITORY_REF for repository.ref
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
