package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/rustscout/pkg/undo"
)

var (
	listUndoDir    string
	listUndoFormat string

	undoDirFlag string
	undoAll     bool
	undoDryRun  bool
)

var listUndoCmd = &cobra.Command{
	Use:   "list-undo",
	Short: "List available undo records",
	Args:  cobra.NoArgs,
	RunE:  runListUndo,
}

var undoCmd = &cobra.Command{
	Use:   "undo [record-id]",
	Short: "Revert a previously applied replacement",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runUndo,
}

func init() {
	listUndoCmd.Flags().StringVar(&listUndoDir, "undo-dir", ".rustscout-undo", "Undo log directory")
	listUndoCmd.Flags().StringVar(&listUndoFormat, "format", "human", `Output format: "human" or "json"`)

	undoCmd.Flags().StringVar(&undoDirFlag, "undo-dir", ".rustscout-undo", "Undo log directory")
	undoCmd.Flags().BoolVar(&undoAll, "all", false, "Revert every undo record")
	undoCmd.Flags().BoolVar(&undoDryRun, "dry-run", false, "List the intended restorations without touching the filesystem")
}

func runListUndo(cmd *cobra.Command, args []string) error {
	m := undo.New(listUndoDir)
	records, err := m.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch listUndoFormat {
	case "", "human":
		if len(records) == 0 {
			fmt.Fprintln(out, "no undo records")
			return nil
		}
		for _, r := range records {
			fmt.Fprintf(out, "%d  %s  files=%d bytes=%d dry_run=%t\n", r.ID, r.Description, r.FileCount, r.TotalBytes, r.DryRun)
		}
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	default:
		return invalidArgs("unknown list-undo format %q", listUndoFormat)
	}
	return nil
}

func runUndo(cmd *cobra.Command, args []string) error {
	m := undo.New(undoDirFlag)

	var ids []int64
	switch {
	case undoAll:
		records, err := m.List()
		if err != nil {
			return err
		}
		for _, r := range records {
			ids = append(ids, r.ID)
		}
	case len(args) == 1:
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return invalidArgs("invalid record id %q: %v", args[0], err)
		}
		ids = []int64{id}
	default:
		return invalidArgs("undo requires a record id or --all")
	}

	out := cmd.OutOrStdout()
	for _, id := range ids {
		restored, err := m.Undo(id, undoDryRun)
		if err != nil {
			return err
		}
		verb := "restored"
		if undoDryRun {
			verb = "would restore"
		}
		fmt.Fprintf(out, "undo %d: %s %d file(s)\n", id, verb, len(restored))
		for _, path := range restored {
			fmt.Fprintf(out, "  %s\n", path)
		}
	}
	return nil
}
