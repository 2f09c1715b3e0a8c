package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var rubricCmd = &cobra.Command{
	Use:   "rubric",
	Short: "Inspect scoring rubrics",
}

var rubricListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pitch types with a rubric",
	Args:  cobra.NoArgs,
	RunE:  runRubricList,
}

var rubricShowCmd = &cobra.Command{
	Use:   "show <pitch-type>",
	Short: "Show the rubric for a pitch type",
	Long: `Show the groups and items of the rubric for a pitch type.

Rubrics are read from the rubrics directory under the config directory,
falling back to the built-in rubric.`,
	Args: cobra.ExactArgs(1),
	RunE: runRubricShow,
}

func init() {
	rubricShowCmd.Flags().Bool("json", false, "print as JSON")
	rubricCmd.AddCommand(rubricListCmd)
	rubricCmd.AddCommand(rubricShowCmd)
	rootCmd.AddCommand(rubricCmd)
}

func runRubricList(cmd *cobra.Command, _ []string) error {
	if rubricService == nil {
		return errors.New("rubric service not configured")
	}
	for _, pt := range rubricService.PitchTypes() {
		cmd.Printf("%-16s %s\n", pt, pt.Description())
	}
	return nil
}

func runRubricShow(cmd *cobra.Command, args []string) error {
	if rubricService == nil {
		return errors.New("rubric service not configured")
	}
	asJSON, _ := cmd.Flags().GetBool("json") //nolint:errcheck // flag registered in init

	rubric, err := rubricService.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get rubric: %w", err)
	}
	if asJSON {
		return printJSON(cmd, rubric)
	}
	renderRubric(cmd.OutOrStdout(), rubric, stylesFor(cmd.OutOrStdout()))
	return nil
}
