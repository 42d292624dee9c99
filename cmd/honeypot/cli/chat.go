package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/service"
)

// localClient is the session id used by the interactive chat.
const localClient = "cli"

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the honeypot in the terminal",
		Long: `Start an interactive conversation on stdin/stdout. Mode switches are
printed as they happen. Type /reset to start over and /quit to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().Bool("fast", false, "Use scripted replies only, never call the model")
	cmd.PreRunE = bindFlags(map[string]string{"llm.fast_mode": "fast"})

	return cmd
}

func runChat(in io.Reader, out, errOut io.Writer) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	// Logs go to stderr and stay quiet unless debugging.
	logger := zap.NewNop()
	if settings.Server.Debug {
		if logger, err = newLogger(true); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}
	defer logger.Sync()

	ctx := context.Background()
	eng := newEngine(ctx, settings, logger)
	defer eng.Close()

	sess, err := eng.chat.Session(ctx, localClient)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Honeypot chat (%s replies, mode: %s). /reset to start over, /quit to exit.\n",
		eng.replies.Policy(), sess.Mode)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			if err := eng.chat.Reset(ctx, localClient); err != nil {
				return err
			}
			fmt.Fprintln(out, "[conversation reset, mode: normal]")
			continue
		}

		res, err := eng.chat.Chat(ctx, localClient, line)
		if errors.Is(err, service.ErrEmptyMessage) {
			continue
		}
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			continue
		}

		if res.Switched {
			fmt.Fprintf(out, "[scam detected (%s), mode: %s]\n", strings.Join(res.Verdict.Matches, ", "), res.Mode)
		}
		if res.Warning != "" {
			fmt.Fprintf(errOut, "warning: %s\n", res.Warning)
		}
		fmt.Fprintln(out, res.Reply)
	}
}
