package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if isJSON() {
				return printJSON(map[string]string{
					"version": Version,
					"go":      runtime.Version(),
				})
			}
			fmt.Printf("sc %s (%s)\n", Version, runtime.Version())
			return nil
		},
	}
}
