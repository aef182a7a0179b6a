package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/fittrack/internal/profile"
	"github.com/jonathan/fittrack/internal/session"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit your profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print your profile in your preferred units",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:   "set <field> <value>",
	Short: "Change one profile field",
	Long: `Change one profile field. Fields: name, goal, weight, height, units.
Weight and height are given in your preferred units; changing units converts the
stored metrics.`,
	Args: cobra.ExactArgs(2),
	RunE: runProfileSet,
}

func init() {
	profileCmd.AddCommand(profileShowCmd, profileSetCmd)
	rootCmd.AddCommand(profileCmd)
}

// newProfileEditor wires an editor to the stored session.
func newProfileEditor() (*profile.Editor, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	store, err := sessionStore()
	if err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	identity := &session.RemoteIdentity{Accessor: store, Remote: client, Store: store}
	return profile.NewEditor(client, store, identity,
		profile.WithLogger(logger),
		profile.WithPolicy(policy)), nil
}

func runProfileShow(cmd *cobra.Command, _ []string) error {
	editor, err := newProfileEditor()
	if err != nil {
		return err
	}
	snap, err := editor.Load(cmd.Context())
	if err != nil {
		return err
	}
	return renderProfile(cmd.OutOrStdout(), snap)
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	field, err := profile.ParseField(args[0])
	if err != nil {
		return err
	}
	editor, err := newProfileEditor()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := editor.Load(ctx); err != nil {
		return err
	}

	if _, err := editor.StartEdit(field); err != nil {
		return err
	}
	if err := editor.SetPending(args[1]); err != nil {
		return err
	}
	if err := editor.CommitEdit(ctx, field); err != nil {
		return err
	}

	snap := editor.Snapshot()
	fmt.Fprintln(cmd.OutOrStdout(), snap.Message)
	return renderProfile(cmd.OutOrStdout(), snap)
}

// renderProfile prints a snapshot as aligned rows.
func renderProfile(w io.Writer, snap profile.Snapshot) error {
	p := snap.Profile
	tier := string(p.Tier())
	if tier == "" {
		tier = "-"
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\t%s\n", snap.DisplayName)
	fmt.Fprintf(tw, "Goal\t%s\n", p.CurrentGoal)
	fmt.Fprintf(tw, "Weight\t%s %s\n", formatNumber(p.Metrics.Weight), snap.WeightLabel)
	fmt.Fprintf(tw, "Height\t%s %s\n", formatNumber(p.Metrics.Height), snap.HeightLabel)
	fmt.Fprintf(tw, "Units\t%s\n", p.Settings.UnitsPreference)
	fmt.Fprintf(tw, "Joined\t%s\n", snap.JoinDate)
	fmt.Fprintf(tw, "Tier\t%s\n", tier)
	if len(snap.Stale) > 0 {
		names := make([]string, len(snap.Stale))
		for i, f := range snap.Stale {
			names[i] = string(f)
		}
		fmt.Fprintf(tw, "Not yet converted\t%s\n", strings.Join(names, ", "))
	}
	return tw.Flush()
}

// formatNumber drops trailing zeros: 185 not 185.000000.
func formatNumber(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
