package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/fittrack/internal/fetch"
	"github.com/jonathan/fittrack/internal/routine"
	"github.com/jonathan/fittrack/internal/session"
	"github.com/jonathan/fittrack/internal/types"
	"github.com/jonathan/fittrack/internal/units"
)

var (
	routineListFull bool
	routineUnits    string
	routineOps      []string
	routineDryRun   bool
)

var routineCmd = &cobra.Command{
	Use:   "routine",
	Short: "Manage workout routines",
}

var routineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your routines",
	Args:  cobra.NoArgs,
	RunE:  runRoutineList,
}

var routineCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty routine",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoutineCreate,
}

var routineShowCmd = &cobra.Command{
	Use:   "show <refId>",
	Short: "Print a routine",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoutineShow,
}

var routineDeleteCmd = &cobra.Command{
	Use:   "delete <refId>",
	Short: "Delete a routine",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoutineDelete,
}

var routineEditCmd = &cobra.Command{
	Use:   "edit <refId> --op <op> [--op <op>...]",
	Short: "Apply edits to a routine and save it",
	Long: `Apply edits in order, then save the routine once. Indexes start at 0.

Ops:
  add-workout
  remove-workout <w>
  rename-workout <w> <name>
  add-exercise <w>
  remove-exercise <w> <e>
  rename-exercise <w> <e> <name>
  muscle <w> <e> <group>
  add-set <w> <e>
  remove-set <w> <e> <s>
  set <w> <e> <s> <Reps|Weight|IsDropSet|IsWarmUp> <value>

Weights are read and shown in --units, defaulting to your profile preference.`,
	Args: cobra.ExactArgs(1),
	RunE: runRoutineEdit,
}

func init() {
	routineListCmd.Flags().BoolVar(&routineListFull, "full", false, "Fetch and print every routine in full")
	for _, c := range []*cobra.Command{routineListCmd, routineShowCmd, routineEditCmd} {
		c.Flags().StringVar(&routineUnits, "units", "", "Weight units: Imperial or Metric (default: profile preference)")
	}
	routineEditCmd.Flags().StringArrayVar(&routineOps, "op", nil, "Edit to apply (repeatable)")
	routineEditCmd.Flags().BoolVar(&routineDryRun, "dry-run", false, "Print the changes without saving")
	_ = routineEditCmd.MarkFlagRequired("op")

	routineCmd.AddCommand(routineListCmd, routineCreateCmd, routineShowCmd, routineDeleteCmd, routineEditCmd)
	rootCmd.AddCommand(routineCmd)
}

// displaySystem resolves --units, falling back to the profile preference and then
// to Imperial.
func displaySystem(ctx context.Context, client *fetch.Client, s *session.Session) (units.System, error) {
	if routineUnits != "" {
		return units.ParseSystem(routineUnits)
	}
	resp, err := client.GetProfile(ctx, s.UID, s.IDToken)
	if err != nil {
		logger.Debug("profile unavailable, showing Imperial weights", zap.Error(err))
		return units.Imperial, nil
	}
	if pref := resp.Data.Settings.UnitsPreference; pref.Valid() {
		return pref, nil
	}
	return units.Imperial, nil
}

func runRoutineList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	client, err := newClient()
	if err != nil {
		return err
	}
	_, s, err := currentSession(ctx)
	if err != nil {
		return err
	}

	routines, err := client.ListRoutines(ctx, s.UID, s.IDToken)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(routines) == 0 {
		fmt.Fprintln(out, "No routines yet. Create one with: fittrack routine create <name>")
		return nil
	}
	if !routineListFull {
		return renderRoutineList(out, routines)
	}

	refIDs := make([]string, len(routines))
	for i, r := range routines {
		refIDs[i] = r.RefID
	}
	full, err := client.GetRoutines(ctx, s.IDToken, refIDs)
	if err != nil {
		return err
	}
	system, err := displaySystem(ctx, client, s)
	if err != nil {
		return err
	}
	for i, doc := range full {
		if i > 0 {
			fmt.Fprintln(out)
		}
		renderRoutine(out, doc, system)
	}
	return nil
}

func runRoutineCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := newClient()
	if err != nil {
		return err
	}
	_, s, err := currentSession(ctx)
	if err != nil {
		return err
	}

	req := types.CreateRoutineRequest{RoutineName: args[0], UID: s.UID, IDToken: s.IDToken}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid routine name: %w", err)
	}
	resp, err := client.CreateRoutine(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %q (%s)\n", args[0], resp.RefID)
	return nil
}

// loadRoutineEditor loads refID into an editor displaying weights in the resolved system.
func loadRoutineEditor(ctx context.Context, refID string) (*routine.Editor, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	store, s, err := currentSession(ctx)
	if err != nil {
		return nil, err
	}
	system, err := displaySystem(ctx, client, s)
	if err != nil {
		return nil, err
	}

	editor := routine.NewEditor(client, store,
		routine.WithLogger(logger),
		routine.WithDisplaySystem(system))
	if _, err := editor.Load(ctx, refID); err != nil {
		return nil, err
	}
	return editor, nil
}

func runRoutineShow(cmd *cobra.Command, args []string) error {
	editor, err := loadRoutineEditor(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	renderRoutine(cmd.OutOrStdout(), editor.Document(), editor.DisplaySystem())
	return nil
}

func runRoutineDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := newClient()
	if err != nil {
		return err
	}
	_, s, err := currentSession(ctx)
	if err != nil {
		return err
	}
	if err := client.DeleteRoutine(ctx, args[0], s.IDToken); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func runRoutineEdit(cmd *cobra.Command, args []string) error {
	// Parse everything before touching the network.
	ops := make([]editOp, 0, len(routineOps))
	for _, text := range routineOps {
		op, err := parseOp(text)
		if err != nil {
			return err
		}
		ops = append(ops, op)
	}

	ctx := cmd.Context()
	editor, err := loadRoutineEditor(ctx, args[0])
	if err != nil {
		return err
	}
	if err := applyOps(editor, ops); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !editor.Dirty() {
		fmt.Fprintln(out, "No changes")
		return nil
	}
	if routineDryRun {
		fmt.Fprintln(out, editor.Diff())
		return nil
	}
	if err := editor.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, editor.Message())
	renderRoutine(out, editor.Document(), editor.DisplaySystem())
	return nil
}

// applyOps applies ops in order and stops at the first failure.
func applyOps(editor *routine.Editor, ops []editOp) error {
	for i, op := range ops {
		if err := op.apply(editor); err != nil {
			return fmt.Errorf("op %d (%s): %w", i+1, op.text, err)
		}
	}
	return nil
}

func renderRoutineList(w io.Writer, routines []types.RoutineDocument) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REF ID\tNAME\tCREATED\tWORKOUTS")
	for _, r := range routines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", r.RefID, r.RoutineName, r.CreatedDisplay(), len(r.Workouts))
	}
	return tw.Flush()
}

// renderRoutine prints the routine tree with indexes, weights in system.
func renderRoutine(w io.Writer, doc types.RoutineDocument, system units.System) {
	fmt.Fprintf(w, "%s  (%s, created %s)\n", doc.RoutineName, doc.RefID, doc.CreatedDisplay())
	if len(doc.Workouts) == 0 {
		fmt.Fprintln(w, "  no workouts")
	}
	for wi, workout := range doc.Workouts {
		fmt.Fprintf(w, "  [%d] %s\n", wi, workout.WorkoutName)
		for ei, ex := range workout.Exercises {
			fmt.Fprintf(w, "    [%d] %s (%s)\n", ei, ex.ExerciseName, ex.MuscleGroup)
			for si, set := range ex.Sets {
				weight := units.ConvertWeight(set.Weight, routine.StorageSystem, system)
				fmt.Fprintf(w, "      [%d] %d x %s %s%s\n", si, set.Reps, formatNumber(weight), system.WeightLabel(), setFlags(set))
			}
		}
	}
}

func setFlags(set types.SetEntry) string {
	switch {
	case set.IsWarmUp && set.IsDropSet:
		return "  warm-up, drop set"
	case set.IsWarmUp:
		return "  warm-up"
	case set.IsDropSet:
		return "  drop set"
	}
	return ""
}
