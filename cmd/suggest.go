package cmd

import (
	"fmt"

	"github.com/npillmayer/ensnano/suggest"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// suggestCmd lists pairs of nucleotides close enough for a crossover
var suggestCmd = &cobra.Command{
	Use:   "suggest [design]",
	Short: "Suggest crossovers between close nucleotides",
	Long: `Pair nucleotides of blue helices with nucleotides of red helices which are
less than 1.2 nm apart, closest pairs first, each nucleotide used at most once.
Without groups, all nucleotides of the design are paired with each other.`,
	Args:                       cobra.ExactArgs(1),
	RunE:                       suggestExec,
	SuggestionsMinimumDistance: 3,
}

func init() {
	suggestCmd.Flags().IntSliceP("blue", "b", nil, "helices of the blue group")
	suggestCmd.Flags().IntSliceP("red", "r", nil, "helices of the red group")
	suggestCmd.Flags().Bool("include-scaffold", true, "accept pairs involving the scaffold")
	suggestCmd.Flags().Bool("include-intra-strand", true, "accept pairs within a strand")
	suggestCmd.Flags().Bool("include-xover-ends", false, "accept nucleotides at crossover ends")
	suggestCmd.Flags().Bool("ignore-groups", false, "pair all nucleotides regardless of groups")
	for _, name := range []string{"include-scaffold", "include-intra-strand", "include-xover-ends", "ignore-groups"} {
		viper.BindPFlag("suggest."+name, suggestCmd.Flags().Lookup(name))
	}

	RootCmd.AddCommand(suggestCmd)
}

func suggestExec(cmd *cobra.Command, args []string) error {
	d, c, err := loadDesign(args[0])
	if err != nil {
		return err
	}
	groups := make(suggest.Groups)
	blue, _ := cmd.Flags().GetIntSlice("blue")
	red, _ := cmd.Flags().GetIntSlice("red")
	for _, h := range blue {
		groups[h] = true
	}
	for _, h := range red {
		groups[h] = false
	}
	params := c.Suggest
	if len(groups) == 0 {
		params.IgnoreGroups = true
	}
	w := cmd.OutOrStdout()
	suggestions := suggest.Suggest(d, groups, params)
	for _, s := range suggestions {
		fmt.Fprintf(w, "%v %v %.3f nm\n", s.Blue, s.Red, s.Dist)
	}
	fmt.Fprintf(w, "%d suggestions\n", len(suggestions))
	return nil
}
