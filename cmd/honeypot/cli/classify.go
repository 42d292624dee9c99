package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/classifier"
)

func newClassifyCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "classify <text>...",
		Short: "Check a message against the scam indicators",
		Example: `  honeypot classify "Your account is blocked, share the OTP"
  honeypot classify --json hello there`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verdict := classifier.New().Classify(strings.Join(args, " "))
			if jsonOutput {
				return writeJSONTo(cmd.OutOrStdout(), verdict)
			}

			label := "clean"
			if verdict.IsScam {
				label = "scam"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (confidence %.1f)\n", label, verdict.Confidence)
			if len(verdict.Matches) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "  matched: %s\n", strings.Join(verdict.Matches, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the verdict as JSON")

	return cmd
}
