package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/npillmayer/ensnano/roller"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rollCmd relaxes the rolls of helices against the crossovers between them
var rollCmd = &cobra.Command{
	Use:   "roll [design]",
	Short: "Relax helix rolls so that crossovers get their ideal length",
	Long: `Simulate the helices of a design as rotating bodies, pulled by springs along
their crossovers, until the rolls stabilize. The rolls found are stored in the
design.`,
	Args:                       cobra.ExactArgs(1),
	RunE:                       rollExec,
	SuggestionsMinimumDistance: 3,
}

func init() {
	rollCmd.Flags().IntSliceP("helices", "t", nil, "helices allowed to roll (default: all)")
	rollCmd.Flags().StringP("out", "o", "", "output design file (default: the input)")
	rollCmd.Flags().Int("max-steps", roller.DefaultMaxSteps, "maximum number of simulation steps")
	viper.BindPFlag("roller.max-steps", rollCmd.Flags().Lookup("max-steps"))

	RootCmd.AddCommand(rollCmd)
}

func rollExec(cmd *cobra.Command, args []string) error {
	d, c, err := loadDesign(args[0])
	if err != nil {
		return err
	}
	targets, _ := cmd.Flags().GetIntSlice("helices")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	job := roller.Start(ctx, d.Snapshot(), c.RollerOptions(targets))
	for st := range job.States() {
		if st.Step%100 == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "\rstep %d, gradient %.4f", st.Step, st.Grad)
		}
	}
	fmt.Fprintln(cmd.ErrOrStderr())
	st, err := job.Wait()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if st.Stabilized {
		fmt.Fprintf(w, "rolls stabilized after %d steps\n", st.Step)
	} else {
		fmt.Fprintf(w, "rolls not stabilized after %d steps (gradient %.4f)\n", st.Step, st.Grad)
	}
	if err := roller.Apply(d, st); err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	return saveDesign(d, args[0], out)
}
