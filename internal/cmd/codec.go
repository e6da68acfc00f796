package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/gitqueue/internal/commit"
	"github.com/Iron-Ham/gitqueue/internal/config"
	"github.com/Iron-Ham/gitqueue/internal/errors"
	"github.com/Iron-Ham/gitqueue/internal/message"
	"github.com/Iron-Ham/gitqueue/internal/subject"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <subject>",
	Short: "Decode a commit subject line",
	Long: `Decode a queue commit subject and print its fields. The command does not
need a repository.

Example:
  gitqueue decode '📝🈺: build-queue: job.id.42'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a commit subject line",
	Long: `Print the commit subject for a queue message. The command does not need a
repository.

Example:
  gitqueue encode --kind job-started --queue build-queue --job-id 42 --job-ref 3f2a9c1`,
	Args: cobra.NoArgs,
	RunE: runEncode,
}

var (
	encodeKind   string
	encodeQueue  string
	encodeJobID  int
	encodeJobRef string
)

func init() {
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(encodeCmd)

	encodeCmd.Flags().StringVarP(&encodeKind, "kind", "k", "new-job", "message kind: new-job, job-started, job-finished")
	encodeCmd.Flags().StringVarP(&encodeQueue, "queue", "q", "", "queue name")
	encodeCmd.Flags().IntVar(&encodeJobID, "job-id", message.NoJobID, "job id (omitted when negative)")
	encodeCmd.Flags().StringVar(&encodeJobRef, "job-ref", "", "hash of the commit that created the job")
	_ = encodeCmd.MarkFlagRequired("queue")
}

// codecPrinter builds a printer from configuration without requiring the
// repository section to be valid.
func codecPrinter(cmd *cobra.Command) *printer {
	out := config.OutputConfig{
		Format: viper.GetString("output.format"),
		Color:  viper.GetString("output.color"),
	}
	return newPrinter(cmd.OutOrStdout(), out)
}

func runDecode(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if !subject.BelongsToAQueue(text) {
		return errors.NewValidationError("not a queue commit subject").
			WithField("subject").
			WithValue(text).
			WithCause(errors.ErrMissingMessageKey)
	}

	s, err := subject.Parse(text)
	if err != nil {
		return err
	}
	return codecPrinter(cmd).subject(s)
}

func runEncode(cmd *cobra.Command, args []string) error {
	key, err := parseKind(encodeKind)
	if err != nil {
		return err
	}
	queueName, err := parseQueueName(encodeQueue)
	if err != nil {
		return err
	}

	ref := commit.NullHash()
	if encodeJobRef != "" {
		if ref, err = commit.NewHash(encodeJobRef); err != nil {
			return err
		}
	}

	id := encodeJobID
	if id < 0 {
		id = message.NoJobID
	}

	text := subject.Format(subject.Subject{
		Key:    key,
		Queue:  queueName,
		JobRef: ref,
		JobID:  id,
	})
	return codecPrinter(cmd).text(text, map[string]string{"subject": text})
}
