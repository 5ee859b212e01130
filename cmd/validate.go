package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ctestgen.dev/pkg/ctestgen/internal/domain"
	m "ctestgen.dev/pkg/ctestgen/internal/model"
)

// validateCmd represents the validate command.
var validateCmd = newValidateCmd()

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <repo-path>",
		Short: "Re-validate previously generated tests",
		Long: `Run the heuristic validator over the test files in the output directory,
match each test back to its source file and write a validation.yaml report
next to the tests. No model calls are made.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoPath := m.Path(args[0])
			if !repoExists(repoPath) {
				return fmt.Errorf("repository path %q does not exist", repoPath)
			}

			return analysisWorkflow().Validate(cmd.Context(), domain.ValidateArgs{
				RepoPath: repoPath,
				TestsDir: m.Path(viper.GetString(outputFlagName)),
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
