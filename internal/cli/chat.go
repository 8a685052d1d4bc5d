package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sentinelops/copilot/internal/render"
	"github.com/sentinelops/copilot/internal/session"
)

var typeDelay time.Duration

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open an interactive chat with the copilot",
	Long: `Open an interactive chat with the copilot.

Plain input is sent as a chat turn. Commands:
  /new            start a new conversation
  /open <id>      switch to another conversation
  /list           list conversations, newest first
  /trace          show the agent trace for the last decision
  /quit           exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := e.bootstrap(ctx); err != nil {
			return err
		}

		if e.store.Empty() {
			if _, err := e.store.CreateConversation(ctx, "", ""); err != nil {
				return err
			}
		}
		printActive(e)

		scanner := bufio.NewScanner(os.Stdin)
		fmt.Print("> ")
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			switch {
			case line == "":
			case line == "/quit", line == "/exit":
				return nil
			case line == "/new":
				if _, err := e.store.CreateConversation(ctx, "", ""); err != nil {
					fmt.Fprintln(os.Stderr, err)
				} else {
					printActive(e)
				}
			case strings.HasPrefix(line, "/open "):
				id := strings.TrimSpace(strings.TrimPrefix(line, "/open "))
				if conv := e.store.OpenConversation(id); conv == nil {
					fmt.Fprintf(os.Stderr, "no conversation %q\n", id)
				} else {
					printActive(e)
					for _, msg := range conv.Messages {
						fmt.Printf("[%s] %s\n", msg.Role, msg.Content)
					}
				}
			case line == "/list":
				for conv := range e.store.SearchConversations("") {
					fmt.Printf("%s  %s\n", conv.ID, conv.Title)
				}
			case line == "/trace":
				if conv := e.store.Active(); conv != nil {
					fmt.Println(render.Trace(conv.Steps))
				}
			default:
				sendTurn(e, cmd, line)
			}
			fmt.Print("> ")
		}
		return scanner.Err()
	},
}

func sendTurn(e *env, cmd *cobra.Command, text string) {
	resp, err := e.store.SendChatTurn(cmd.Context(), text)
	if err != nil {
		if errors.Is(err, session.ErrTurnInFlight) {
			fmt.Fprintln(os.Stderr, "still waiting on the previous turn")
			return
		}
		// The failure notice is already in the transcript.
		fmt.Println(session.FailureNotice)
		e.log.Warn(err.Error())
		return
	}

	render.Typewriter(os.Stdout, render.Decision(resp.Final), typeDelay)
	fmt.Println()
}

func printActive(e *env) {
	if conv := e.store.Active(); conv != nil {
		fmt.Printf("── %s (%s)\n", conv.Title, conv.ID)
	}
}

func init() {
	chatCmd.Flags().DurationVar(&typeDelay, "type-delay", 0, "Per-rune reveal delay for assistant output")
	rootCmd.AddCommand(chatCmd)
}
