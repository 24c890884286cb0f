package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wagnerlima/promptmux/internal/merge"
)

var (
	mergeProject string
	mergeHTML    bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Print the merged document of a project",
	Args:  cobra.NoArgs,
	RunE:  runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mergeProject, "project", "", "Project id (default: active project)")
	mergeCmd.Flags().BoolVar(&mergeHTML, "html", false, "Render HTML instead of plain text")
}

func runMerge(cmd *cobra.Command, args []string) error {
	a, err := openApp(dataDir, settingsPath, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if !mergeHTML {
		out, err := a.session.MergedOutput(mergeProject)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}

	proj := a.session.ActiveProject()
	if mergeProject != "" {
		if proj, err = a.session.Project(mergeProject); err != nil {
			return err
		}
	}
	out, err := merge.RenderHTML(proj)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
