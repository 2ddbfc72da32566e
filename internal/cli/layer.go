package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sceneforge/stagedit/internal/engine"
)

var (
	layerStage     string
	layerAnonName  string
	layerRecursive bool
)

var layerCmd = &cobra.Command{
	Use:   "layer",
	Short: "Edit a stage's sub-layer references, locks, and mutes",
	Long: `Edit the reference graph of an open stage.

Layers are addressed by path (relative paths resolve against the working
directory) or by anonymous identifier. Sub-layer references inside a parent
are addressed verbatim, exactly as they appear in 'stage status'. Every
command here is one reversible edit: 'stagedit undo' restores the previous
state exactly.`,
}

var layerAddAnonCmd = &cobra.Command{
	Use:   "add-anon <parent>",
	Short: "Add a fresh anonymous layer at the top of a parent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cwd, err := layerSetup()
		if err != nil {
			return err
		}

		result, err := eng.AddAnonymous(context.Background(), &engine.AddAnonymousRequest{
			CWD:    cwd,
			Stage:  layerStage,
			Parent: args[0],
			Name:   layerAnonName,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}
		PrintSuccess(fmt.Sprintf("Added anonymous layer %s", result.Identifier))
		return nil
	},
}

var layerInsertCmd = &cobra.Command{
	Use:   "insert <parent> <index> <path>",
	Short: "Insert a sub-layer reference at an index",
	Long: `Insert a sub-layer reference into a parent at the given index.

Index 0 is the strongest position. The reference is stored verbatim and
does not have to resolve to an existing file yet.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cwd, err := layerSetup()
		if err != nil {
			return err
		}
		index, err := parseIndex(args[1])
		if err != nil {
			return err
		}

		if err := eng.InsertSubPath(context.Background(), &engine.InsertSubPathRequest{
			CWD:    cwd,
			Stage:  layerStage,
			Parent: args[0],
			Index:  index,
			Path:   args[2],
		}); err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]string{"inserted": args[2]})
		}
		PrintSuccess(fmt.Sprintf("Inserted %s at index %d", args[2], index))
		return nil
	},
}

var layerRemoveCmd = &cobra.Command{
	Use:   "remove <parent> <index>...",
	Short: "Remove sub-layer references by index",
	Long: `Remove one or more sub-layer references from a parent.

All indices refer to the child list as it is before the command runs, so
'remove root 0 1' drops the two references that are currently on top.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cwd, err := layerSetup()
		if err != nil {
			return err
		}

		indices := make([]int, 0, len(args)-1)
		for _, a := range args[1:] {
			idx, err := parseIndex(a)
			if err != nil {
				return err
			}
			indices = append(indices, idx)
		}

		result, err := eng.RemoveSubPaths(context.Background(), &engine.RemoveSubPathsRequest{
			CWD:     cwd,
			Stage:   layerStage,
			Parent:  args[0],
			Indices: indices,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}
		PrintSuccess(fmt.Sprintf("Removed %s", PrintCount(len(result.Removed), "sub-layer", "sub-layers")))
		PrintList(result.Removed, 1)
		return nil
	},
}

var layerReplaceCmd = &cobra.Command{
	Use:   "replace <parent> <old-path> <new-path>",
	Short: "Rewrite a sub-layer reference in place",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cwd, err := layerSetup()
		if err != nil {
			return err
		}

		if err := eng.ReplaceSubPath(context.Background(), &engine.ReplaceSubPathRequest{
			CWD:     cwd,
			Stage:   layerStage,
			Parent:  args[0],
			OldPath: args[1],
			NewPath: args[2],
		}); err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]string{"old": args[1], "new": args[2]})
		}
		PrintSuccess(fmt.Sprintf("Replaced %s with %s", args[1], args[2]))
		return nil
	},
}

var layerMoveCmd = &cobra.Command{
	Use:   "move <parent> <child-path> <dest-parent> <dest-index>",
	Short: "Move a sub-layer reference to a new parent and position",
	Long: `Move a sub-layer reference out of its parent and into a destination.

When moving within the same parent, the destination index counts positions
in the list with the child already taken out. When moving to a different
directory, a relative reference is rewritten so it still resolves to the
same file.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cwd, err := layerSetup()
		if err != nil {
			return err
		}
		index, err := parseIndex(args[3])
		if err != nil {
			return err
		}

		if err := eng.MoveSubPath(context.Background(), &engine.MoveSubPathRequest{
			CWD:        cwd,
			Stage:      layerStage,
			Parent:     args[0],
			ChildPath:  args[1],
			DestParent: args[2],
			DestIndex:  index,
		}); err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]string{"moved": args[1]})
		}
		PrintSuccess(fmt.Sprintf("Moved %s to %s at index %d", args[1], args[2], index))
		return nil
	},
}

var layerClearCmd = &cobra.Command{
	Use:   "clear <parent>",
	Short: "Remove all sub-layer references from a parent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cwd, err := layerSetup()
		if err != nil {
			return err
		}

		if err := eng.Clear(context.Background(), &engine.ClearRequest{
			CWD:    cwd,
			Stage:  layerStage,
			Parent: args[0],
		}); err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]string{"cleared": args[0]})
		}
		PrintSuccess(fmt.Sprintf("Cleared sub-layers of %s", args[0]))
		return nil
	},
}

var layerDiscardCmd = &cobra.Command{
	Use:   "discard <layer>",
	Short: "Reload a layer from disk, discarding unsaved changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cwd, err := layerSetup()
		if err != nil {
			return err
		}

		if err := eng.DiscardEdits(context.Background(), &engine.DiscardEditsRequest{
			CWD:   cwd,
			Stage: layerStage,
			Layer: args[0],
		}); err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]string{"discarded": args[0]})
		}
		PrintSuccess(fmt.Sprintf("Discarded edits on %s", args[0]))
		return nil
	},
}

var layerLockCmd = &cobra.Command{
	Use:   "lock <layer> <mode>",
	Short: "Set a layer's lock state",
	Long: `Set a layer's lock state.

Modes: unlock (0), user (1), system (2). A locked layer rejects structural
edits; a system-locked layer additionally cannot be saved. With --recursive
the mode also applies to every layer currently below <layer>; layers added
afterwards are not affected.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cwd, err := layerSetup()
		if err != nil {
			return err
		}
		mode, err := parseLockMode(args[1])
		if err != nil {
			return err
		}

		if err := eng.LockLayer(context.Background(), &engine.LockLayerRequest{
			CWD:       cwd,
			Stage:     layerStage,
			Layer:     args[0],
			Mode:      mode,
			Recursive: layerRecursive,
		}); err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]interface{}{"layer": args[0], "mode": mode})
		}
		if mode == 0 {
			PrintSuccess(fmt.Sprintf("Unlocked %s", args[0]))
		} else {
			PrintSuccess(fmt.Sprintf("Locked %s (%s)", args[0], args[1]))
		}
		return nil
	},
}

var layerRefreshLockCmd = &cobra.Command{
	Use:   "refresh-lock <layer>",
	Short: "Lift system locks on layers that are writable again",
	Long: `Re-check filesystem write permission for system-locked layers and lift
the locks on layers that now report writable. User locks are untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cwd, err := layerSetup()
		if err != nil {
			return err
		}

		result, err := eng.RefreshSystemLock(context.Background(), &engine.RefreshSystemLockRequest{
			CWD:       cwd,
			Stage:     layerStage,
			Layer:     args[0],
			Recursive: layerRecursive,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}
		if len(result.Unlocked) == 0 {
			PrintInfo("No system locks to lift")
			return nil
		}
		PrintSuccess(fmt.Sprintf("Unlocked %s", PrintCount(len(result.Unlocked), "layer", "layers")))
		PrintList(result.Unlocked, 1)
		return nil
	},
}

var layerMuteCmd = &cobra.Command{
	Use:   "mute <layer>",
	Short: "Exclude a layer from the composed stack",
	Long: `Exclude a layer from the stage's composed stack.

Muting does not change the reference graph: the layer stays listed as a
structural child of its parents and can be unmuted at any time.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMute(args[0], true)
	},
}

var layerUnmuteCmd = &cobra.Command{
	Use:   "unmute <layer>",
	Short: "Include a muted layer in the composed stack again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMute(args[0], false)
	},
}

func runMute(layer string, muted bool) error {
	eng, cwd, err := layerSetup()
	if err != nil {
		return err
	}

	if err := eng.MuteLayer(context.Background(), &engine.MuteLayerRequest{
		CWD:   cwd,
		Stage: layerStage,
		Layer: layer,
		Muted: muted,
	}); err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(map[string]interface{}{"layer": layer, "muted": muted})
	}
	if muted {
		PrintSuccess(fmt.Sprintf("Muted %s", layer))
	} else {
		PrintSuccess(fmt.Sprintf("Unmuted %s", layer))
	}
	return nil
}

// layerSetup wires the engine and working directory for a layer subcommand.
func layerSetup() (*engine.Engine, string, error) {
	eng, err := newEngine()
	if err != nil {
		return nil, "", err
	}
	cwd, err := workingDir()
	if err != nil {
		return nil, "", err
	}
	return eng, cwd, nil
}

func parseIndex(s string) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: must be an integer", s)
	}
	return idx, nil
}

func parseLockMode(s string) (int, error) {
	switch s {
	case "unlock", "0":
		return 0, nil
	case "user", "1":
		return 1, nil
	case "system", "2":
		return 2, nil
	}
	return 0, fmt.Errorf("invalid lock mode %q: must be unlock, user, or system", s)
}

func init() {
	layerCmd.PersistentFlags().StringVarP(&layerStage, "stage", "s", "", "Stage handle (required)")
	_ = layerCmd.MarkPersistentFlagRequired("stage")

	layerAddAnonCmd.Flags().StringVar(&layerAnonName, "name", "", "Display name of the new layer")
	layerLockCmd.Flags().BoolVarP(&layerRecursive, "recursive", "r", false, "Also apply to layers below")
	layerRefreshLockCmd.Flags().BoolVarP(&layerRecursive, "recursive", "r", false, "Also refresh layers below")

	layerCmd.AddCommand(layerAddAnonCmd)
	layerCmd.AddCommand(layerInsertCmd)
	layerCmd.AddCommand(layerRemoveCmd)
	layerCmd.AddCommand(layerReplaceCmd)
	layerCmd.AddCommand(layerMoveCmd)
	layerCmd.AddCommand(layerClearCmd)
	layerCmd.AddCommand(layerDiscardCmd)
	layerCmd.AddCommand(layerLockCmd)
	layerCmd.AddCommand(layerRefreshLockCmd)
	layerCmd.AddCommand(layerMuteCmd)
	layerCmd.AddCommand(layerUnmuteCmd)
}
