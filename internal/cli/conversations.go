package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	convTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	convIDStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246"))
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		if err := e.bootstrap(cmd.Context()); err != nil {
			return err
		}

		for conv := range e.store.SearchConversations("") {
			line := convTitleStyle.Render(conv.Title) + "  " + convIDStyle.Render(conv.ID)
			if conv.Time > 0 {
				line += "  " + convIDStyle.Render(time.UnixMilli(conv.Time).Format("2006-01-02"))
			}
			fmt.Println(line)
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Filter conversations by title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		if err := e.bootstrap(cmd.Context()); err != nil {
			return err
		}

		for conv := range e.store.SearchConversations(args[0]) {
			fmt.Println(convTitleStyle.Render(conv.Title) + "  " + convIDStyle.Render(conv.ID))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
}
