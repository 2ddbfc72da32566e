package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sceneforge/stagedit/internal/engine"
)

var undoCmd = &cobra.Command{
	Use:   "undo <stage>",
	Short: "Revert the most recent edit on a stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		result, err := eng.Undo(context.Background(), &engine.UndoRequest{Stage: args[0]})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}
		PrintSuccess(fmt.Sprintf("Undid %q", result.Label))
		PrintInfo(fmt.Sprintf("%s behind, %s ahead",
			PrintCount(result.UndoDepth, "edit", "edits"),
			PrintCount(result.RedoDepth, "edit", "edits")))
		return nil
	},
}

var redoCmd = &cobra.Command{
	Use:   "redo <stage>",
	Short: "Re-apply the most recently undone edit on a stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		result, err := eng.Redo(context.Background(), &engine.RedoRequest{Stage: args[0]})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}
		PrintSuccess(fmt.Sprintf("Redid %q", result.Label))
		PrintInfo(fmt.Sprintf("%s behind, %s ahead",
			PrintCount(result.UndoDepth, "edit", "edits"),
			PrintCount(result.RedoDepth, "edit", "edits")))
		return nil
	},
}
