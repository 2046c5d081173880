package cmd

import (
	"fmt"

	"github.com/npillmayer/ensnano/design"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// discretizeCmd rediscretizes the curved helices of a design
var discretizeCmd = &cobra.Command{
	Use:   "discretize [design]",
	Short: "Discretize the curved helices of a design",
	Long: `Place the nucleotides of every curved helix of a design along its curve,
with the helix parameters and discretization settings in effect. The nucleotide
range of each curved helix is listed; with --out the design is saved.`,
	Args:                       cobra.ExactArgs(1),
	RunE:                       discretizeExec,
	SuggestionsMinimumDistance: 3,
}

// checkCmd reports inconsistencies of a design
var checkCmd = &cobra.Command{
	Use:   "check [design]",
	Short: "Check the strands and crossovers of a design",
	Long: `Check that every strand of a design is well formed, that its crossovers are
registered, and list helices overlapping in the flat view.`,
	Args:                       cobra.ExactArgs(1),
	RunE:                       checkExec,
	SuggestionsMinimumDistance: 3,
}

func init() {
	discretizeCmd.Flags().StringP("out", "o", "", "output design file")
	discretizeCmd.Flags().Float64("step", 0, "arc length between nucleotides in nm (default: rise of the helix model)")
	discretizeCmd.Flags().Int("nb-step", 0, "parameter sub-steps per nucleotide")
	discretizeCmd.Flags().Bool("legacy", false, "use the walk of old designs")
	viper.BindPFlag("discretization.step", discretizeCmd.Flags().Lookup("step"))
	viper.BindPFlag("discretization.nb-step", discretizeCmd.Flags().Lookup("nb-step"))
	viper.BindPFlag("discretization.legacy", discretizeCmd.Flags().Lookup("legacy"))

	RootCmd.AddCommand(discretizeCmd)
	RootCmd.AddCommand(checkCmd)
}

func discretizeExec(cmd *cobra.Command, args []string) error {
	d, _, err := loadDesign(args[0])
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	curved := 0
	d.Helices.Each(func(id int, h *design.Helix) {
		lo, hi, ok := h.CurveRange()
		if !ok {
			return
		}
		curved++
		fmt.Fprintf(w, "helix %d: nucleotides %d to %d\n", id, lo, hi)
	})
	fmt.Fprintf(w, "%d of %d helices curved, step %.4f nm\n", curved, d.Helices.Len(), d.Discretization.Step)
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		return d.Save(out)
	}
	return nil
}

func checkExec(cmd *cobra.Command, args []string) error {
	d, _, err := loadDesign(args[0])
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if err := d.CheckConsistency(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d helices, %d strands, %d crossovers\n", d.Helices.Len(), d.Strands.Len(), d.Xovers.Len())
	for _, o := range d.FlatOverlaps() {
		fmt.Fprintf(w, "helices %d and %d overlap in the flat view (area %.1f)\n", o.H1, o.H2, o.Area)
	}
	return nil
}
