package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/trialrag/internal/archive"
	"github.com/ziadkadry99/trialrag/internal/config"
	"github.com/ziadkadry99/trialrag/internal/trials"
)

var (
	sponsorNames   []string
	sponsorRebuild bool
	sponsorAskAll  bool
)

var sponsorsCmd = &cobra.Command{
	Use:   "sponsors",
	Short: "Index and question the per-sponsor TrialTwin SQLite extracts",
}

var sponsorsUnzipCmd = &cobra.Command{
	Use:   "unzip",
	Short: "Extract every .zip archive in trials.sqlite_dir",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		n, err := archive.ExtractAll(cfg.Trials.SQLiteDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d archive(s) into [%s]\n", n, cfg.Trials.SQLiteDir)
		return nil
	},
}

var sponsorsIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build (or reload) one vector index per sponsor",
	RunE:  runSponsorsIndex,
}

var sponsorsAskCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask the trial questions of each sponsor index",
	Long: `Reloads each sponsor's index and asks the configured trial questions.
By default only the first sponsor is questioned; pass --all (or set
trials.stop_after_first: false) to question every sponsor.`,
	RunE: runSponsorsAsk,
}

func init() {
	sponsorsCmd.PersistentFlags().StringSliceVar(&sponsorNames, "sponsor", nil, "restrict to these sponsors (default: trials.sponsors)")
	sponsorsIndexCmd.Flags().BoolVar(&sponsorRebuild, "rebuild", false, "rebuild indexes even if they exist")
	sponsorsAskCmd.Flags().BoolVar(&sponsorAskAll, "all", false, "question every sponsor, not just the first")

	sponsorsCmd.AddCommand(sponsorsUnzipCmd, sponsorsIndexCmd, sponsorsAskCmd)
	rootCmd.AddCommand(sponsorsCmd)
}

// selectedSponsors resolves the --sponsor flag against the configuration.
func selectedSponsors(cfg *config.Config) ([]trials.Sponsor, error) {
	all, err := trials.Sponsors(*cfg)
	if err != nil {
		return nil, err
	}
	return trials.Select(all, sponsorNames)
}

func newBatch(cmd *cobra.Command, cfg *config.Config) (*trials.Batch, func(), error) {
	logger := newLogger(cfg)
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	return trials.NewBatch(*cfg, embedder, provider, cmd.OutOrStdout(), logger), func() { logger.Sync() }, nil
}

func runSponsorsIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sponsors, err := selectedSponsors(cfg)
	if err != nil {
		return err
	}
	batch, done, err := newBatch(cmd, cfg)
	if err != nil {
		return err
	}
	defer done()

	r := startRun(cmd.OutOrStdout(), "sponsors index")
	if err := batch.GenerateIndices(cmd.Context(), sponsors, sponsorRebuild); err != nil {
		return err
	}
	r.finish()
	return nil
}

func runSponsorsAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if sponsorAskAll {
		cfg.Trials.StopAfterFirst = false
	}
	sponsors, err := selectedSponsors(cfg)
	if err != nil {
		return err
	}
	batch, done, err := newBatch(cmd, cfg)
	if err != nil {
		return err
	}
	defer done()

	r := startRun(cmd.OutOrStdout(), "sponsors ask")
	if _, err := batch.AskQuestions(cmd.Context(), sponsors, cfg.Trials.Questions); err != nil {
		return err
	}
	r.finish()
	return nil
}
