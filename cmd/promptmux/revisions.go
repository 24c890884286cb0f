package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	revisionsLimit int
	revisionsShow  int64
)

var revisionsCmd = &cobra.Command{
	Use:   "revisions",
	Short: "List stored workspace revisions or print one",
	Args:  cobra.NoArgs,
	RunE:  runRevisions,
}

func init() {
	revisionsCmd.Flags().IntVarP(&revisionsLimit, "limit", "n", 20, "Maximum number of revisions to list")
	revisionsCmd.Flags().Int64Var(&revisionsShow, "show", 0, "Print the workspace stored in this revision")
}

func runRevisions(cmd *cobra.Command, args []string) error {
	a, err := openApp(dataDir, settingsPath, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if revisionsShow > 0 {
		ws, err := a.store.LoadRevision(revisionsShow)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(ws, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	revs, err := a.store.Revisions(revisionsLimit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSIZE\tCREATED")
	for _, r := range revs {
		fmt.Fprintf(tw, "%d\t%d\t%s\n", r.ID, r.Size, r.CreatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}
