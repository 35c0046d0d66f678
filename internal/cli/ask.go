package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   `ask "question"`,
		Short: "Ask the animal assistant",
		Long:  "Send a question to the server's animal assistant and print its reply.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		return fmt.Errorf("question is required")
	}

	reply, err := newAPIClient().Chat(message)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]string{"response": reply})
	}

	fmt.Println(reply)
	return nil
}
