package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCommentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comments <species-id>",
		Short: "List comments for a species",
		Long:  "List all comments for a species with their authors, newest first.",
		Args:  cobra.ExactArgs(1),
		RunE:  runComments,
	}
}

func runComments(cmd *cobra.Command, args []string) error {
	id, err := parseID("species", args[0])
	if err != nil {
		return err
	}

	comments, err := newAPIClient().ListComments(id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(comments)
	}

	fmt.Printf("Comments for species #%d:\n\n", id)
	printCommentList(comments, time.Now())
	return nil
}
