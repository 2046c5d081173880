package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/npillmayer/ensnano/design"
	"github.com/npillmayer/ensnano/shift"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// shiftCmd searches the scaffold shift with the fewest bad patterns
var shiftCmd = &cobra.Command{
	Use:   "shift [design]",
	Short: "Find the scaffold shift with the fewest bad patterns in the staples",
	Long: `Try every rotation of the scaffold sequence along the scaffold strand and
count the runs of G or C and of A or T in the resulting staple sequences. The
shift with the lowest score is reported; with --apply it is stored in the design.`,
	Args:                       cobra.ExactArgs(1),
	RunE:                       shiftExec,
	SuggestionsMinimumDistance: 3,
}

func init() {
	shiftCmd.Flags().StringP("scaffold", "f", "", "scaffold sequence file (FASTA or plain text)")
	shiftCmd.Flags().BoolP("apply", "a", false, "store the best shift in the design")
	shiftCmd.Flags().StringP("out", "o", "", "output design file (default: the input)")
	shiftCmd.Flags().Int("progress-every", shift.DefaultProgressEvery, "report progress every n shifts")
	viper.BindPFlag("shift.progress-every", shiftCmd.Flags().Lookup("progress-every"))

	RootCmd.AddCommand(shiftCmd)
}

func readScaffold(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return design.ReadScaffoldSequence(f)
}

func shiftExec(cmd *cobra.Command, args []string) error {
	d, c, err := loadDesign(args[0])
	if err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString("scaffold"); path != "" {
		seq, err := readScaffold(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		d.ScaffoldSequence = seq
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	job := shift.Start(ctx, d.Snapshot(), c.Shift.ProgressEvery)
	for p := range job.Progress() {
		fmt.Fprintf(cmd.ErrOrStderr(), "\r%3.0f%%", 100*p)
	}
	fmt.Fprintln(cmd.ErrOrStderr())
	res := job.Wait()
	if res.Err != nil {
		return res.Err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Best shift: %d (score %d)\n", res.Shift, res.Score())
	fmt.Fprintln(w, strings.TrimSpace(res.Report()))
	if apply, _ := cmd.Flags().GetBool("apply"); apply {
		if err := shift.Apply(d, res); err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		return saveDesign(d, args[0], out)
	}
	return nil
}
