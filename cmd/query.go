package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/trialrag/internal/config"
	"github.com/ziadkadry99/trialrag/internal/indexer"
	"github.com/ziadkadry99/trialrag/internal/query"
	"github.com/ziadkadry99/trialrag/internal/vectordb"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask an ad-hoc question of a persisted index",
	Long: `Reloads a persisted index and answers the question with the configured
model. --index takes an index name as listed by the serving surfaces
("pdf", "sponsor/<Name>") or an index directory. With --search the
matching nodes are printed instead of an answer. --where restricts retrieval
to nodes whose metadata matches, e.g. --where sponsor=Abbott.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().String("index", "pdf", "index name or index directory")
	queryCmd.Flags().Bool("search", false, "print the most similar nodes instead of asking the model")
	queryCmd.Flags().Int("limit", 0, "number of nodes to retrieve (default: similarity_top_k)")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	queryCmd.Flags().StringToString("where", nil, "only retrieve nodes with this metadata (key=value, repeatable)")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	question := args[0]

	indexArg, _ := cmd.Flags().GetString("index")
	searchOnly, _ := cmd.Flags().GetBool("search")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	where, _ := cmd.Flags().GetStringToString("where")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	defer logger.Sync()

	if limit <= 0 {
		limit = cfg.SimilarityTopK
	}

	dir, err := resolveIndexDir(cfg, indexArg)
	if err != nil {
		return err
	}

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return err
	}

	progressOut := out
	if jsonOutput {
		progressOut = io.Discard
	}
	m, err := indexer.Open(ctx, dir, embedder, progressOut)
	if err != nil {
		return err
	}

	if searchOnly {
		if jsonOutput {
			sources, err := query.Search(ctx, m.Store, question, limit, where)
			if err != nil {
				return err
			}
			return printJSON(out, sources)
		}
		results, err := m.Store.Search(ctx, question, limit, where)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		fmt.Fprint(out, vectordb.FormatResults(results))
		return nil
	}

	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return err
	}
	engine := query.NewEngine(&query.VectorRetriever{Store: m.Store, TopK: limit, Where: where}, provider, cfg.Model, logger)
	resp, err := engine.Query(ctx, question)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(out, resp)
	}
	fmt.Fprintf(out, "\n%s\n\n", resp)
	printSources(out, resp.Sources)
	return nil
}

// resolveIndexDir maps a catalog name to its directory; anything else is
// taken to be a directory.
func resolveIndexDir(cfg *config.Config, arg string) (string, error) {
	entries, err := catalogEntries(cfg)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.Name == arg {
			return e.Dir, nil
		}
	}
	return arg, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSources(out io.Writer, sources []query.Source) {
	headingColor.Fprintf(out, "Sources (%d):\n", len(sources))
	for i, s := range sources {
		fmt.Fprintf(out, "  %d. [%.1f%%] %s\n", i+1, s.Score*100, s.RefDocID)
		fmt.Fprintf(out, "     %s\n", truncate(s.Text, 120))
	}
}

// truncate shortens s to at most maxLen runes on a single line.
func truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
