package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"archboard/validation"
)

func validateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <project.json>",
		Short: "Check a project file for structural problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := readProject(args[0])
			if err != nil {
				return err
			}

			v := validation.NewValidator()
			v.SetStrictMode(strict)

			errs := v.Validate(project)
			if len(errs) == 0 {
				good.Printf("✓ %s: %d nodes, %d edges, no problems\n",
					args[0], len(project.Nodes), len(project.Edges))
				return nil
			}

			for _, e := range errs {
				bad.Printf("  %s\n", e.Error())
			}
			return fmt.Errorf("%d validation errors", len(errs))
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Also reject node types outside the built-in taxonomy")
	return cmd
}
