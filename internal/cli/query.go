package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchEmbedding string
	searchText      string
	searchTopK      int
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find the documents nearest to an embedding",
	Long: `Return the content of up to k documents whose embeddings are nearest to
the query by Euclidean distance, nearest first.

Examples:
  vecdb search -e 0.1,0.2,0.3 --rebuild
  vecdb search -e "[0.1, 0.2, 0.3]" -k 3 --json --rebuild
  vecdb search -t "brown fox" --rebuild   # needs embedding.provider`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchEmbedding, "embedding", "e", "", "query embedding, comma separated")
	searchCmd.Flags().StringVarP(&searchText, "text", "t", "", "query text, embedded by the configured provider")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagsOneRequired("embedding", "text")
	searchCmd.MarkFlagsMutuallyExclusive("embedding", "text")
}

func runSearch(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()

	var query []float32
	if searchText != "" {
		query, err = embedText(ctx, searchText)
	} else {
		query, err = parseEmbedding(searchEmbedding)
	}
	if err != nil {
		return err
	}

	k := GetConfig().Search.DefaultK
	if cmd.Flags().Changed("top-k") {
		k = searchTopK
	}

	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.closeInto(ctx, &err)

	results, err := sess.svc.Search(ctx, query, k)
	if err != nil {
		return err
	}

	if searchJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		if sess.svc.Points() == 0 {
			fmt.Println(dimStyle.Render("The index is empty. Pass --rebuild to replay the durable log."))
		}
		return nil
	}
	fmt.Println(headerStyle.Render(fmt.Sprintf("Found %d results", len(results))))
	for i, r := range results {
		fmt.Printf("%s %s\n", rankStyle.Render(fmt.Sprintf("[%d]", i+1)), truncate(r.Content, 500))
	}
	return nil
}
