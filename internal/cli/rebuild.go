package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logLimit int

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Replay the durable log into the index and report the result",
	Long: `Discard the in-memory index and re-add every document in the durable log.
Documents deleted since they were added reappear, because deletions are not
logged.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List records in the durable log",
	Args:  cobra.NoArgs,
	RunE:  runLog,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "maximum records to print (0 for all)")
}

func runRebuild(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.closeInto(ctx, &err)

	total, err := sess.svc.Log().Len(ctx)
	if err != nil {
		return err
	}
	bar := newProgressBar(int64(total), "Rebuilding")
	n, err := sess.svc.RebuildFromLog(ctx, func(done, _ uint64) {
		bar.Set64(int64(done))
	})
	bar.Finish()
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render("Rebuild complete"))
	printField("Records", n)
	printField("Documents", sess.svc.Size())
	printField("Points", sess.svc.Points())
	return nil
}

func runLog(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.closeInto(ctx, &err)

	printed := 0
	for rec, err := range sess.svc.Log().All(ctx) {
		if err != nil {
			return err
		}
		if logLimit > 0 && printed == logLimit {
			fmt.Println(dimStyle.Render("..."))
			break
		}
		fmt.Printf("%s %s %s\n",
			rankStyle.Render(fmt.Sprintf("#%d", rec.Position)),
			truncate(rec.Document.Content, 80),
			dimStyle.Render(fmt.Sprintf("(%d dims)", len(rec.Document.Embedding))))
		printed++
	}
	if printed == 0 {
		fmt.Println("Log is empty.")
	}
	return nil
}
