package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"vecdb/internal/domain"
)

var (
	docContent   string
	docEmbedding string
	sizePoints   bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a document to the index and the durable log",
	Long: `Add a document. Its identifier is derived from the content; the embedding
is padded with zeros or truncated to the configured dimension. Without
--embedding the content is embedded by the configured embedding.provider.

Examples:
  vecdb add -c "the quick brown fox" -e 0.1,0.2,0.3
  vecdb add -c "the quick brown fox"   # needs embedding.provider`,
	RunE: runAdd,
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove a document from the in-memory index",
	Long: `Remove a document. Both the content and the embedding must match what was
added. The durable log is not modified, so a later rebuild restores it.`,
	RunE: runDelete,
}

var sizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Print the number of distinct documents",
	RunE:  runSize,
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(sizeCmd)

	for _, c := range []*cobra.Command{addCmd, deleteCmd} {
		c.Flags().StringVarP(&docContent, "content", "c", "", "document content (required)")
		c.Flags().StringVarP(&docEmbedding, "embedding", "e", "", "document embedding, comma separated (default embeds the content)")
		c.MarkFlagRequired("content")
	}
	sizeCmd.Flags().BoolVar(&sizePoints, "points", false, "also print the number of index points")
}

func documentFromFlags(ctx context.Context) (domain.Document, error) {
	var (
		emb []float32
		err error
	)
	if docEmbedding != "" {
		emb, err = parseEmbedding(docEmbedding)
	} else {
		emb, err = embedText(ctx, docContent)
	}
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{Content: docContent, Embedding: emb}, nil
}

func runAdd(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	doc, err := documentFromFlags(ctx)
	if err != nil {
		return err
	}

	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.closeInto(ctx, &err)

	if err := sess.svc.Add(ctx, doc); err != nil {
		return err
	}
	n, err := sess.svc.Log().Len(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Added document (%d records in log)\n", n)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	doc, err := documentFromFlags(ctx)
	if err != nil {
		return err
	}

	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.closeInto(ctx, &err)

	before := sess.svc.Points()
	if err := sess.svc.Delete(ctx, doc); err != nil {
		return err
	}
	fmt.Printf("Removed %d points\n", before-sess.svc.Points())
	return nil
}

func runSize(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.closeInto(ctx, &err)

	fmt.Println(sess.svc.Size())
	if sizePoints {
		fmt.Println(dimStyle.Render(fmt.Sprintf("%d points", sess.svc.Points())))
	}
	return nil
}
