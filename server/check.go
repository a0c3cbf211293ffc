package main

import (
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Versifine/threadboard/server/store"
)

var strictOrphans bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Rescan the document and report index inconsistencies",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&strictOrphans, "strict", false, "treat orphaned replies as failures")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	failures := printProblems(st.CheckIndexes(), strictOrphans)
	if failures > 0 {
		return errors.Errorf("%d index problems", failures)
	}
	return nil
}

// printProblems writes the report and returns how many problems count as
// failures.
func printProblems(problems []store.IndexProblem, strict bool) int {
	if len(problems) == 0 {
		color.Green("✓ All indexes consistent")
		return 0
	}

	faint := color.New(color.Faint)
	failures := 0
	for _, p := range problems {
		if p.Kind == store.ProblemOrphan && !strict {
			color.Yellow("warn  %-10s %s", p.Kind, p.Detail)
			continue
		}
		failures++
		color.Red("fail  %-10s %s", p.Kind, p.Detail)
	}
	faint.Printf("%d problems, %d failures\n", len(problems), failures)
	return failures
}
