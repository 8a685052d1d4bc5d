package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "List folders",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		if err := e.bootstrap(cmd.Context()); err != nil {
			return err
		}

		for _, folder := range e.store.Folders() {
			fmt.Printf("%s  %s (%d chats)\n", convIDStyle.Render(folder.ID), folder.Name, len(folder.ChatIDs))
		}
		return nil
	},
}

var folderCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		if err := e.bootstrap(cmd.Context()); err != nil {
			return err
		}

		folder, err := e.store.CreateFolder(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Created folder %s (%s)\n", folder.Name, folder.ID)
		return nil
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <conversation-id> <folder-id>",
	Short: "Move a conversation into a folder",
	Long: `Move a conversation into a folder.

Membership is kept client-side only: it survives reloads through the session
cache but is not reported to the backend.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		if err := e.bootstrap(cmd.Context()); err != nil {
			return err
		}

		if err := e.store.AssignToFolder(args[0], args[1]); err != nil {
			return err
		}
		fmt.Println("Moved.")
		return nil
	},
}

func init() {
	foldersCmd.AddCommand(folderCreateCmd)
	rootCmd.AddCommand(foldersCmd)
	rootCmd.AddCommand(moveCmd)
}
