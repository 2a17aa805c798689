package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/rustscout/pkg/config"
	"github.com/praetorian-inc/rustscout/pkg/fileproc"
	"github.com/praetorian-inc/rustscout/pkg/replace"
	"github.com/praetorian-inc/rustscout/pkg/search"
	"github.com/praetorian-inc/rustscout/pkg/types"
)

var (
	replaceRegex            bool
	replaceCaseInsensitive  bool
	replaceBoundary         string
	replaceHyphen           string
	replaceDryRun           bool
	replaceBackup           bool
	replaceBackupDir        string
	replacePreserveMetadata bool
	replacePreview          bool
	replaceThreads          int
	replaceUndoDir          string
	replaceNoColor          bool
)

var replaceCmd = &cobra.Command{
	Use:   "replace <root> <pattern> <replacement>",
	Short: "Replace every occurrence of a pattern under root",
	Args:  cobra.ExactArgs(3),
	RunE:  runReplace,
}

func init() {
	flags := replaceCmd.Flags()
	flags.BoolVar(&replaceRegex, "regex", false, "Treat the pattern as a regular expression")
	flags.BoolVar(&replaceCaseInsensitive, "ignore-case", false, "Case-insensitive matching")
	flags.StringVar(&replaceBoundary, "boundary", "none", `Word-boundary mode: "none" or "words"`)
	flags.StringVar(&replaceHyphen, "hyphen", "boundary", `Hyphen handling: "boundary" or "joining"`)
	flags.BoolVar(&replaceDryRun, "dry-run", false, "Plan and preview without touching the filesystem")
	flags.BoolVar(&replaceBackup, "backup", false, "Copy each original into --backup-dir before rewriting")
	flags.StringVar(&replaceBackupDir, "backup-dir", "", "Backup directory (default: <undo-dir>/backups)")
	flags.BoolVar(&replacePreserveMetadata, "preserve-metadata", false, "Preserve file permissions and modified time")
	flags.BoolVar(&replacePreview, "preview", false, "Print the planned edits without applying them")
	flags.IntVar(&replaceThreads, "threads", 0, "Worker thread count (default: logical CPUs)")
	flags.StringVar(&replaceUndoDir, "undo-dir", ".rustscout-undo", "Undo log directory")
	flags.BoolVar(&replaceNoColor, "no-color", false, "Disable colorized output")
}

func runReplace(cmd *cobra.Command, args []string) error {
	root, pattern, replacement := args[0], args[1], args[2]

	applyReplaceConfigDefaults(cmd, loadConfig())

	defs, err := buildPatternDefinitions([]string{pattern}, replaceRegex, replaceCaseInsensitive, replaceBoundary, replaceHyphen)
	if err != nil {
		return err
	}

	planner, err := replace.NewPlanner(defs, []string{replacement})
	if err != nil {
		return err
	}

	threads := replaceThreads
	if threads < 0 {
		return invalidArgs("--threads must not be negative")
	}

	engine := search.New(search.Config{
		Root:     root,
		Patterns: defs,
		Threads:  threads,
		Encoding: fileproc.FailFast,
		OnWarning: func(path, message string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", path, message)
		},
	})

	result, err := engine.Search(context.Background())
	if err != nil {
		return err
	}

	var plans []types.FileReplacementPlan
	for _, fr := range result.Files {
		if len(fr.Matches) == 0 {
			continue
		}
		content, err := os.ReadFile(fr.Path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %v\n", fr.Path, err)
			continue
		}
		plan, err := planner.BuildPlan(fr.Path, content, fr)
		if err != nil {
			return err
		}
		if len(plan.Tasks) > 0 {
			plans = append(plans, plan)
		}
	}

	out := cmd.OutOrStdout()
	if replacePreview || replaceDryRun {
		printPlans(out, newStyles(!replaceNoColor), plans)
		if replacePreview && !replaceDryRun {
			return nil
		}
	}

	backupDir := replaceBackupDir
	if backupDir == "" {
		backupDir = filepath.Join(replaceUndoDir, "backups")
	}

	exec := replace.NewExecutor(replace.ExecutorConfig{
		Backup:           replaceBackup,
		BackupDir:        backupDir,
		UndoDir:          replaceUndoDir,
		PreserveMetadata: replacePreserveMetadata,
		DryRun:           replaceDryRun,
		Description:      fmt.Sprintf("replace %q -> %q under %s", pattern, replacement, root),
	})

	record, err := exec.ApplyAll(plans)
	if err != nil {
		return err
	}

	s := newStyles(!replaceNoColor)
	s.heading.Fprintln(out, "Replacement summary")
	fmt.Fprintf(out, "  files changed:  %d\n", record.FileCount)
	fmt.Fprintf(out, "  bytes written:  %d\n", record.TotalBytes)
	if !replaceDryRun && record.FileCount > 0 {
		fmt.Fprintf(out, "  undo id:        %d\n", record.ID)
	}
	return nil
}

func printPlans(w io.Writer, s *styles, plans []types.FileReplacementPlan) {
	for _, plan := range plans {
		s.path.Fprintln(w, plan.Path)
		for _, t := range plan.Tasks {
			fmt.Fprintf(w, "  [%d,%d) -> %q\n", t.Start, t.End, string(t.ReplacementText))
		}
	}
}

// applyReplaceConfigDefaults mirrors applySearchConfigDefaults for the
// replace verb's options (§6).
func applyReplaceConfigDefaults(cmd *cobra.Command, file *config.File) {
	if file.Replace == nil {
		return
	}
	opts := file.Replace
	flags := cmd.Flags()
	changed := func(name string) bool { return flags.Changed(name) }

	if !changed("regex") && opts.Regex {
		replaceRegex = opts.Regex
	}
	if !changed("dry-run") && opts.DryRun {
		replaceDryRun = opts.DryRun
	}
	if !changed("backup") && opts.Backup {
		replaceBackup = opts.Backup
	}
	if !changed("backup-dir") && opts.BackupDir != "" {
		replaceBackupDir = opts.BackupDir
	}
	if !changed("preserve-metadata") && opts.PreserveMetadata {
		replacePreserveMetadata = opts.PreserveMetadata
	}
	if !changed("preview") && opts.Preview {
		replacePreview = opts.Preview
	}
	if !changed("threads") && opts.Threads > 0 {
		replaceThreads = opts.Threads
	}
	if !changed("undo-dir") && opts.UndoDir != "" {
		replaceUndoDir = opts.UndoDir
	}
}
