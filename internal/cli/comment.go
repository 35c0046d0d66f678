package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   `comment <species-id> "text"`,
		Short: "Add a comment to a species",
		Long:  "Post a text comment on a species as the logged-in user.",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runComment,
	}
}

func runComment(cmd *cobra.Command, args []string) error {
	id, err := parseID("species", args[0])
	if err != nil {
		return err
	}

	text := strings.TrimSpace(strings.Join(args[1:], " "))
	if text == "" {
		return fmt.Errorf("comment text is required")
	}

	c, err := newAPIClient().AddComment(id, text)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(c)
	}

	printCommentSingle(c)
	return nil
}

func newUncommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uncomment <comment-id>",
		Short: "Delete one of your comments",
		Long:  "Delete a comment you posted. Comments by other users cannot be deleted.",
		Args:  cobra.ExactArgs(1),
		RunE:  runUncomment,
	}
}

func runUncomment(cmd *cobra.Command, args []string) error {
	id, err := parseID("comment", args[0])
	if err != nil {
		return err
	}

	if err := newAPIClient().DeleteComment(id); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]interface{}{
			"id":      id,
			"deleted": true,
		})
	}

	fmt.Printf("Comment #%d deleted.\n", id)
	return nil
}
