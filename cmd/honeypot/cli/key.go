package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/config"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
		Long:    "Create, list, disable and revoke the API keys that guard the honeypot's chat and key endpoints.",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyRevokeCmd())
	cmd.AddCommand(newKeySetActiveCmd("disable", false))
	cmd.AddCommand(newKeySetActiveCmd("enable", true))
	cmd.AddCommand(newKeyValidateCmd())

	return cmd
}

// openCLIKeyStore loads settings and opens the credential store they name.
func openCLIKeyStore() (*config.Store, *zap.Logger, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(settings.Server.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	store, err := openKeyStore(settings, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, logger, nil
}

// findKey resolves a full key or a unique prefix of one.
func findKey(ctx context.Context, store *config.Store, ref string) (*model.APIKey, error) {
	if ref == "" {
		return nil, errors.New("no key given")
	}
	if k, err := store.Get(ctx, ref); err == nil {
		return k, nil
	}

	var match *model.APIKey
	for _, k := range store.List(ctx) {
		if !strings.HasPrefix(k.Key, ref) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("prefix %q matches more than one key", ref)
		}
		k := k
		match = &k
	}
	if match == nil {
		return nil, fmt.Errorf("no API key found matching %q", ref)
	}
	return match, nil
}

func printJSON(v any) error {
	return writeJSONTo(os.Stdout, v)
}

// writeJSONTo writes v as indented JSON.
func writeJSONTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	var (
		name       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long:  "Generate a new API key. The raw key is shown once; list output only ever shows it masked.",
		Example: `  honeypot key create --name "Fraud desk"
  honeypot key create --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate(name, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Human-readable name for the key")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runKeyCreate(name string, jsonOutput bool) error {
	store, logger, err := openCLIKeyStore()
	if err != nil {
		return err
	}
	defer logger.Sync()

	k, err := store.Issue(context.Background(), strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("create api key: %w", err)
	}

	if jsonOutput {
		return printJSON(model.CreateKeyResponse{APIKey: k.Key, Name: k.Name, Created: k.Created})
	}

	fmt.Println("API Key created:")
	fmt.Println()
	fmt.Printf("  Key:     %s\n", k.Key)
	fmt.Printf("  Name:    %s\n", k.Name)
	fmt.Printf("  Created: %s\n", k.Created.Format(time.RFC3339))
	fmt.Println()
	fmt.Println("  Save this key now - it cannot be retrieved again.")
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runKeyList(jsonOutput bool) error {
	store, logger, err := openCLIKeyStore()
	if err != nil {
		return err
	}
	defer logger.Sync()

	keys := store.List(context.Background())
	masked := make([]model.MaskedAPIKey, len(keys))
	for i, k := range keys {
		masked[i] = k.Masked()
	}

	if jsonOutput {
		return printJSON(model.ListKeysResponse{Keys: masked})
	}

	if len(masked) == 0 {
		fmt.Println("No API keys issued. Use 'honeypot key create' to create one.")
		return nil
	}

	fmt.Printf("%-22s %-24s %-20s %-20s %-6s\n", "KEY", "NAME", "CREATED", "LAST USED", "ACTIVE")
	fmt.Printf("%-22s %-24s %-20s %-20s %-6s\n", "---", "----", "-------", "---------", "------")
	for _, k := range masked {
		lastUsed := "never"
		if k.LastUsed != nil {
			lastUsed = k.LastUsed.Format("2006-01-02 15:04:05")
		}
		active := "yes"
		if !k.Active {
			active = "no"
		}
		fmt.Printf("%-22s %-24s %-20s %-20s %-6s\n",
			k.Key, k.Name, k.Created.Format("2006-01-02 15:04:05"), lastUsed, active)
	}

	return nil
}

// ---------- key revoke ----------

func newKeyRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "revoke <key|prefix>",
		Aliases: []string{"delete", "rm"},
		Short:   "Permanently delete an API key",
		Long:    "Delete an API key from the key file. Requests using it are rejected from then on.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyRevoke(args[0])
		},
	}
}

func runKeyRevoke(ref string) error {
	store, logger, err := openCLIKeyStore()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()
	k, err := findKey(ctx, store, ref)
	if err != nil {
		return err
	}
	if !store.Revoke(ctx, k.Key) {
		return fmt.Errorf("no API key found matching %q", ref)
	}

	fmt.Printf("Revoked API key %s (%s)\n", model.MaskKey(k.Key, 8), k.Name)
	return nil
}

// ---------- key disable / enable ----------

func newKeySetActiveCmd(use string, active bool) *cobra.Command {
	short := "Disable an API key without deleting it"
	if active {
		short = "Re-enable a disabled API key"
	}

	return &cobra.Command{
		Use:   use + " <key|prefix>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeySetActive(args[0], active)
		},
	}
}

func runKeySetActive(ref string, active bool) error {
	store, logger, err := openCLIKeyStore()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()
	k, err := findKey(ctx, store, ref)
	if err != nil {
		return err
	}
	if err := store.SetActive(ctx, k.Key, active); err != nil {
		return fmt.Errorf("update api key: %w", err)
	}

	state := "disabled"
	if active {
		state = "enabled"
	}
	fmt.Printf("API key %s %s\n", model.MaskKey(k.Key, 8), state)
	return nil
}

// ---------- key validate ----------

func newKeyValidateCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "validate [key]",
		Short: "Check whether an API key is valid",
		Long:  "Check a key against the key file. With no argument the key is read from the terminal without echo.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) > 0 {
				key = args[0]
			} else {
				var err error
				if key, err = readSecret("API key: "); err != nil {
					return err
				}
			}
			return runKeyValidate(key, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// readSecret prompts on stderr and reads a line from stdin, without echo
// when stdin is a terminal.
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read key: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read key: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func runKeyValidate(key string, jsonOutput bool) error {
	store, logger, err := openCLIKeyStore()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var resp model.ValidateKeyResponse
	switch k := store.Validate(context.Background(), key); {
	case key == "":
		resp = model.ValidateKeyResponse{Valid: false, Error: "No API key provided"}
	case k == nil:
		resp = model.ValidateKeyResponse{Valid: false, Error: "Invalid or inactive API key"}
	default:
		created := k.Created
		resp = model.ValidateKeyResponse{Valid: true, Name: k.Name, Created: &created}
	}

	if jsonOutput {
		return printJSON(resp)
	}
	if !resp.Valid {
		return errors.New(resp.Error)
	}
	fmt.Printf("Valid: %s (created %s)\n", resp.Name, resp.Created.Format(time.RFC3339))
	return nil
}
