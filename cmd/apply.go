package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"archboard/ops"
)

func applyCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "apply <project.json> <operations.json>",
		Short: "Apply an edit-operations document to a project file",
		Long:  "Applies a JSON array of edit operations to a project. Pass \"-\" as the\noperations file to read from stdin. Malformed documents are repaired where\npossible; unrecoverable ones apply nothing.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := readProject(args[0])
			if err != nil {
				return err
			}

			var raw []byte
			if args[1] == "-" {
				raw, err = io.ReadAll(os.Stdin)
			} else {
				raw, err = os.ReadFile(args[1])
			}
			if err != nil {
				return fmt.Errorf("read operations: %w", err)
			}

			batch := ops.Parse(string(raw))
			if len(batch) == 0 {
				warn.Println("no operations recovered from input")
				return nil
			}

			applied := ops.Apply(project, batch)
			if applied < len(batch) {
				warn.Printf("applied %d of %d operations\n", applied, len(batch))
			}
			if applied == 0 {
				return nil
			}
			project.Touch()

			path := output
			if path == "" {
				path = args[0]
			}
			if err := writeProject(path, project); err != nil {
				return err
			}

			good.Printf("✓ applied %d operations → %s\n", applied, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write result here instead of in place")
	return cmd
}
