package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vindex/jsonx"
	"vindex/snapshot"
)

var inspectSnapshotPath string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the latest persisted snapshot as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := snapshot.Open(inspectSnapshotPath)
		if err != nil {
			return err
		}
		defer store.Close()

		export, err := store.Latest()
		if err != nil {
			return err
		}
		if export == nil {
			return fmt.Errorf("no snapshots stored in %s", inspectSnapshotPath)
		}
		out, err := jsonx.MarshalIndent(export, "", "  ")
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(append(out, '\n'))
		return err
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectSnapshotPath, "snapshot-path", "./data/vindex-snapshots.db", "Path to the snapshot database")
}
