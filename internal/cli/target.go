package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sceneforge/stagedit/internal/engine"
)

var targetSet string

var targetCmd = &cobra.Command{
	Use:   "target <stage>",
	Short: "Query or move a stage's edit target",
	Long: `Show which layer receives authored edits, or move the target with --set.

The target must be reachable in the stage's current layer stack. When a
structural edit removes the target's last surviving path, the target falls
back to the root layer automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		ctx := context.Background()

		if targetSet != "" {
			cwd, err := workingDir()
			if err != nil {
				return err
			}
			if err := eng.TargetSet(ctx, &engine.TargetSetRequest{
				CWD:    cwd,
				Stage:  args[0],
				Target: targetSet,
			}); err != nil {
				return err
			}
		}

		result, err := eng.TargetQuery(ctx, &engine.TargetQueryRequest{Stage: args[0]})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]string{"target": result.Target})
		}
		if targetSet != "" {
			PrintSuccess(fmt.Sprintf("Edit target is now %s", result.Target))
		} else {
			PrintLabelValue("Edit target", result.Target)
		}
		return nil
	},
}

func init() {
	targetCmd.Flags().StringVar(&targetSet, "set", "", "Layer to move the edit target to")
}
