package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"archboard/diagram"
	"archboard/layout"
)

func layoutCmd() *cobra.Command {
	var (
		algorithm string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "layout <project.json>",
		Short: "Recompute node positions in a project file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := readProject(args[0])
			if err != nil {
				return err
			}

			positioned, err := layout.Compute(project.Nodes, project.Edges,
				layout.Algorithm(algorithm), layout.Options{})
			if err != nil {
				return err
			}
			project.Nodes = positioned
			project.Touch()

			path := output
			if path == "" {
				path = args[0]
			}
			if err := writeProject(path, project); err != nil {
				return err
			}

			good.Printf("✓ laid out %d nodes (%s) → %s\n", len(project.Nodes), algorithm, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", string(layout.Auto),
		"Layout algorithm: hierarchical, force, grid, circular, auto")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write result here instead of in place")
	return cmd
}

func readProject(path string) (*diagram.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	var project diagram.Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	return &project, nil
}

func writeProject(path string, project *diagram.Project) error {
	data, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
