package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ctestgen.dev/pkg/ctestgen/internal/domain"
	m "ctestgen.dev/pkg/ctestgen/internal/model"
)

var generateParallelFlag int
var generateBatchFlag bool
var generateChangedOnlyFlag bool

// generateCmd represents the generate command.
var generateCmd = newGenerateCmd()

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <repo-path>",
		Short: "Generate Unity tests for a C repository",
		Long: `Run the full pipeline for every C file under the repository's src/ tree:
analyze, build a prompt, request test code from Gemini, post-process the
response into a compilable Unity file and validate it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoPath := m.Path(args[0])
			if !repoExists(repoPath) {
				return fmt.Errorf("repository path %q does not exist", repoPath)
			}

			apiKey := resolveAPIKey(apiKeyFlag)
			if apiKey == "" {
				return fmt.Errorf("gemini API key required: set %s_API_KEY or %s, or pass --%s", envPrefix, geminiKeyEnvVar, apiKeyFlagName)
			}

			return newWorkflow(apiKey).Generate(cmd.Context(), domain.GenerateArgs{
				RepoPath:    repoPath,
				OutputDir:   m.Path(viper.GetString(outputFlagName)),
				Threads:     uint(viper.GetInt(parallelConfigKey)),
				Batch:       viper.GetBool(batchConfigKey),
				ChangedOnly: viper.GetBool(changedOnlyConfigKey),
			})
		},
	}

	configureGenerateFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func configureGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&generateParallelFlag, parallelFlagName, "p", viper.GetInt(parallelConfigKey), "number of parallel per-file generations")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), parallelConfigKey)

	cmd.Flags().BoolVar(&generateBatchFlag, batchFlagName, viper.GetBool(batchConfigKey), "send the whole repository as a single prompt")
	bindFlagToConfig(cmd.Flags().Lookup(batchFlagName), batchConfigKey)

	cmd.Flags().BoolVar(&generateChangedOnlyFlag, changedOnlyFlagName, viper.GetBool(changedOnlyConfigKey), "only process files changed in the last git commit")
	bindFlagToConfig(cmd.Flags().Lookup(changedOnlyFlagName), changedOnlyConfigKey)
}
