package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the Home Assistant connection",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the connection settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the connection settings",
	Long: `Change the Home Assistant URL and long-lived access token.

Flags that are not given keep their current value, except the token, which
is prompted for (without echo) when the URL changes. With --check the new
settings are stored and then tested against the hub.`,
	Args: cobra.NoArgs,
	RunE: runSettingsSet,
}

var (
	settingsURL   string
	settingsToken string
	settingsCheck bool
)

func init() {
	settingsSetCmd.Flags().StringVar(&settingsURL, "url", "", "Home Assistant base URL, e.g. http://homeassistant.local:8123")
	settingsSetCmd.Flags().StringVar(&settingsToken, "token", "", "Long-lived access token")
	settingsSetCmd.Flags().BoolVar(&settingsCheck, "check", false, "Check the hub after saving")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	backend, closeFn, err := openBackend()
	if err != nil {
		return err
	}
	defer closeFn()

	settings, err := backend.LoadSettings(commandContext(cmd))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	url := settings.AppURL
	if url == "" {
		url = styleHint.Render("(not set)")
	}
	fmt.Fprintf(out, "  %s    %s\n", styleLabel.Render("URL"), styleValue.Render(url))
	fmt.Fprintf(out, "  %s  %s\n", styleLabel.Render("Token"), styleValue.Render(maskToken(settings.Token)))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	backend, closeFn, err := openBackend()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := commandContext(cmd)
	current, err := backend.LoadSettings(ctx)
	if err != nil {
		return err
	}

	url := current.AppURL
	if cmd.Flags().Changed("url") {
		url = strings.TrimSpace(settingsURL)
	}
	token := current.Token
	switch {
	case cmd.Flags().Changed("token"):
		token = strings.TrimSpace(settingsToken)
	case url != current.AppURL || token == "":
		token, err = promptToken(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if !settingsCheck {
		if err := backend.UpdateSettings(ctx, url, token); err != nil {
			return err
		}
		fmt.Fprintln(out, styleSuccess.Render("Settings saved."))
		return nil
	}

	result := backend.CheckAPIStatus(ctx, url, token)
	printStatus(out, result)
	if !result.IsOnline() {
		return fmt.Errorf("home assistant is offline")
	}
	return nil
}

// promptToken reads the token from a terminal without echo, or a line from
// any other input.
func promptToken(in io.Reader, prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "Access token: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// maskToken shows only the last four characters.
func maskToken(token string) string {
	switch {
	case token == "":
		return "(not set)"
	case len(token) <= 4:
		return strings.Repeat("*", len(token))
	default:
		return strings.Repeat("*", 8) + token[len(token)-4:]
	}
}
