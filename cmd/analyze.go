package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ctestgen.dev/pkg/ctestgen/internal/domain"
	m "ctestgen.dev/pkg/ctestgen/internal/model"
)

var analyzeChangedOnlyFlag bool

// analyzeCmd represents the analyze command.
var analyzeCmd = newAnalyzeCmd()

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <repo-path>",
		Short: "Analyze a C repository without generating tests",
		Long: `List each C file's extracted functions, includes and cross-file stub
requirements. No model calls are made.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoPath := m.Path(args[0])
			if !repoExists(repoPath) {
				return fmt.Errorf("repository path %q does not exist", repoPath)
			}

			return analysisWorkflow().Analyze(cmd.Context(), domain.AnalyzeArgs{
				RepoPath:    repoPath,
				ChangedOnly: analyzeChangedOnlyFlag,
			})
		},
	}

	// Not bound to config: generate owns the changed_only key.
	cmd.Flags().BoolVar(&analyzeChangedOnlyFlag, changedOnlyFlagName, viper.GetBool(changedOnlyConfigKey), "only analyze files changed in the last git commit")

	return cmd
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
