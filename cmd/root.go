// Package cmd provides the root command and CLI setup for ctestgen.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ctestgen.dev/pkg/ctestgen/internal/adapter"
	"ctestgen.dev/pkg/ctestgen/internal/controller"
	"ctestgen.dev/pkg/ctestgen/internal/domain"
	m "ctestgen.dev/pkg/ctestgen/internal/model"
)

var fsAdapter adapter.SourceFSAdapter
var gitAdapter adapter.GitAdapter
var reportStore adapter.ReportStore
var ui controller.UI

// outputDirFlag is a root-level flag shared by commands that read or write
// generated tests.
var outputDirFlag string

// apiKeyFlag carries the Gemini credential when it is not in the environment.
var apiKeyFlag string

// verboseFlag switches file logging to debug level.
var verboseFlag bool

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	gitAdapter = adapter.NewLocalGitAdapter()
	reportStore = adapter.NewYAMLReportStore()
}

const rootLongDescription = `ctestgen generates Unity unit tests for C repositories. It analyzes each
source file under src/ (functions, includes, call sites, cross-file
dependencies), synthesizes a context-rich prompt, asks a Gemini model for
test code, cleans the response into a compilable Unity file, and rates the
result with heuristic validation.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ctestgen",
		Short: "AI-assisted Unity test generator for C repositories",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger("", verboseFlag)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&outputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for generated tests (relative to the repository unless absolute)",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().StringVar(&apiKeyFlag, apiKeyFlagName, "", "Gemini API key (overrides CTESTGEN_API_KEY / GEMINI_API_KEY)")
	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", false, "debug-level logging")
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// repoExists reports whether the repository path names an existing directory
// or file.
func repoExists(path m.Path) bool {
	_, err := fsAdapter.FileInfo(path)
	return err == nil
}

// newWorkflow assembles the pipeline. The completion client is built per run
// because the credential and model are resolved at invocation time.
func newWorkflow(apiKey string) domain.Workflow {
	config := adapter.DefaultGeminiConfig(apiKey)
	config.Model = viper.GetString(modelConfigKey)
	config.Timeout = time.Duration(viper.GetInt64(timeoutConfigKey)) * time.Second

	completion := adapter.NewGeminiClientWithConfig(config)

	return domain.NewWorkflow(fsAdapter, gitAdapter, completion, reportStore, ui, nil)
}

// analysisWorkflow is like newWorkflow but without a credential; analyze and
// validate never call the model.
func analysisWorkflow() domain.Workflow {
	return domain.NewWorkflow(fsAdapter, gitAdapter, nil, reportStore, ui, nil)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
