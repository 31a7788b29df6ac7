package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"vecdb/internal/adapter/fs"
	"vecdb/internal/domain"
)

var (
	importIncludes []string
	importExcludes []string
	importStrict   bool
)

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Add documents from JSONL files",
	Long: `Add every document found in JSONL files under path. Each line is an object
with "content" and "embedding" fields. Files are selected with doublestar
patterns relative to path.

Examples:
  vecdb import data
  vecdb import . --include "corpus/**/*.jsonl" --exclude "**/draft/**"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringSliceVar(&importIncludes, "include", nil, "file patterns to import (default **/*.jsonl)")
	importCmd.Flags().StringSliceVar(&importExcludes, "exclude", nil, "file patterns to skip")
	importCmd.Flags().BoolVar(&importStrict, "strict", false, "stop at the first malformed record")
}

type importResult struct {
	Files    int
	Added    int
	Rejected int
	Errors   []string
}

func runImport(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()

	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	files, err := fs.NewWalker(importIncludes, importExcludes).Walk(path)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", path, err)
	}
	if len(files) == 0 {
		fmt.Println("No matching files.")
		return nil
	}

	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.closeInto(ctx, &err)

	var total int64
	for _, f := range files {
		total += f.Size
	}
	bar := newProgressBar(int64(len(files)), "Importing")
	start := time.Now()

	var result importResult
	for i, f := range files {
		for doc, err := range fs.ReadDocuments(f.Path) {
			if err == nil {
				err = sess.svc.Add(ctx, doc)
			}
			if err == nil {
				result.Added++
				continue
			}
			if importStrict || !errors.Is(err, domain.ErrMalformedEmbedding) {
				bar.Finish()
				return fmt.Errorf("import stopped after %d documents: %w", result.Added, err)
			}
			result.Rejected++
			result.Errors = append(result.Errors, err.Error())
		}
		result.Files++
		bar.Set(i + 1)
		if elapsed := time.Since(start); i+1 < len(files) && elapsed > 0 {
			rate := float64(i+1) / elapsed.Seconds()
			eta := time.Duration(float64(len(files)-i-1)/rate) * time.Second
			bar.Describe(fmt.Sprintf("[cyan]Importing[reset] ETA: %s", formatDuration(eta)))
		}
	}
	bar.Finish()

	fmt.Println(headerStyle.Render("Import complete"))
	printField("Files", result.Files)
	printField("Bytes read", total)
	printField("Added", result.Added)
	printField("Rejected", result.Rejected)
	printField("Documents", sess.svc.Size())
	if len(result.Errors) > 0 {
		fmt.Println("\nWarnings:")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
