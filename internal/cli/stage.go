package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sceneforge/stagedit/internal/engine"
)

var stageNewName string

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Create, open, list, save, and remove stages",
	Long: `Manage stage sessions.

A stage is an open editing session rooted at one layer. Structural edits,
the edit target, lock and mute state, and the undo history all live on the
stage session until the stage is removed.`,
}

var stageNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a stage with a fresh anonymous root layer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		result, err := eng.StageNew(context.Background(), &engine.StageNewRequest{Name: stageNewName})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}
		PrintSuccess(fmt.Sprintf("Created stage %s", result.Handle))
		PrintLabelValue("Root layer", result.RootLayer)
		return nil
	},
}

var stageOpenCmd = &cobra.Command{
	Use:   "open <file>",
	Short: "Open a layer file as the root of a stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		cwd, err := workingDir()
		if err != nil {
			return err
		}

		result, err := eng.StageOpen(context.Background(), &engine.StageOpenRequest{
			CWD:  cwd,
			File: args[0],
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}
		if result.Existing {
			PrintInfo(fmt.Sprintf("Stage %s is already open", result.Handle))
		} else {
			PrintSuccess(fmt.Sprintf("Opened stage %s", result.Handle))
		}
		PrintLabelValue("Root layer", result.RootLayer)
		return nil
	},
}

var stageLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List open stages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		result, err := eng.StageList(context.Background())
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result.Stages)
		}

		PrintSection("Stages")
		if len(result.Stages) == 0 {
			PrintEmptyState("No open stages. Use 'stagedit stage new' or 'stagedit stage open' to start one.")
			return nil
		}

		rows := make([][]string, 0, len(result.Stages))
		for _, s := range result.Stages {
			rows = append(rows, []string{
				s.Handle,
				s.RootLayer,
				s.EditTarget,
				s.UpdatedAt.Format("2006-01-02 15:04"),
			})
		}
		PrintTable([]string{"HANDLE", "ROOT LAYER", "EDIT TARGET", "UPDATED"}, rows)
		fmt.Println()
		PrintInfo(fmt.Sprintf("Total: %s", PrintCount(len(result.Stages), "stage", "stages")))
		return nil
	},
}

var stageSaveCmd = &cobra.Command{
	Use:   "save <stage>",
	Short: "Write every dirty file-backed layer of a stage to disk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		result, err := eng.StageSave(context.Background(), &engine.StageSaveRequest{Stage: args[0]})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}
		if len(result.Saved) == 0 && len(result.SkippedAnonymous) == 0 {
			PrintInfo("Nothing to save")
			return nil
		}
		PrintSuccess(fmt.Sprintf("Saved %s", PrintCount(len(result.Saved), "layer", "layers")))
		PrintList(result.Saved, 1)
		if len(result.SkippedAnonymous) > 0 {
			PrintWarning(fmt.Sprintf("Skipped %s (anonymous, session-only)", PrintCount(len(result.SkippedAnonymous), "layer", "layers")))
			PrintList(result.SkippedAnonymous, 1)
		}
		return nil
	},
}

var stageStatusCmd = &cobra.Command{
	Use:   "status <stage>",
	Short: "Show a stage's composed layer stack and editing state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		result, err := eng.StageStatus(context.Background(), &engine.StageStatusRequest{Stage: args[0]})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSection(fmt.Sprintf("Stage %s", result.Handle))
		PrintLabelValue("Root layer", result.RootLayer)
		PrintLabelValue("Edit target", result.EditTarget)
		if !result.AnyModifiable {
			PrintWarning("Every layer in this stage is locked")
		}

		fmt.Println()
		PrintSubsection("Layer stack (strongest first):")
		PrintNumberedList(result.Stack, 1)

		if len(result.Muted) > 0 {
			fmt.Println()
			PrintSubsection("Muted:")
			PrintList(result.Muted, 1)
		}
		if len(result.Locks) > 0 {
			fmt.Println()
			PrintSubsection("Locked:")
			for _, id := range sortedKeys(result.Locks) {
				PrintLabelValue(id, result.Locks[id])
			}
		}
		if len(result.DirtyLayers) > 0 {
			fmt.Println()
			PrintSubsection("Unsaved changes:")
			PrintList(result.DirtyLayers, 1)
		}
		return nil
	},
}

var stageRmCmd = &cobra.Command{
	Use:   "rm <stage>",
	Short: "Forget a stage session, leaving layer files untouched",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		if err := eng.StageRemove(context.Background(), &engine.StageRemoveRequest{Stage: args[0]}); err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]string{"removed": args[0]})
		}
		PrintSuccess(fmt.Sprintf("Removed stage %s", args[0]))
		return nil
	},
}

func init() {
	stageNewCmd.Flags().StringVar(&stageNewName, "name", "", "Display name of the anonymous root layer")

	stageCmd.AddCommand(stageNewCmd)
	stageCmd.AddCommand(stageOpenCmd)
	stageCmd.AddCommand(stageLsCmd)
	stageCmd.AddCommand(stageSaveCmd)
	stageCmd.AddCommand(stageStatusCmd)
	stageCmd.AddCommand(stageRmCmd)
}
