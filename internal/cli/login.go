package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login [token]",
	Short: "Store the bearer token used for backend requests",
	Long: `Store the bearer token attached to every backend request.

Token acquisition happens outside this client (the copilot web login); paste
the issued token here. A token the backend rejects is cleared automatically.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}

		var token string
		if len(args) == 1 {
			token = args[0]
		} else {
			fmt.Fprint(os.Stderr, "Token: ")
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil {
				return err
			}
			token = line
		}

		token = strings.TrimSpace(token)
		if token == "" {
			return fmt.Errorf("empty token")
		}
		if err := e.tokens.Save(token); err != nil {
			return fmt.Errorf("store token: %w", err)
		}
		fmt.Println("Token stored.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		if err := e.tokens.Clear(); err != nil {
			return err
		}
		fmt.Println("Token cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
