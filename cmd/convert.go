package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/npillmayer/ensnano/cadnano"
	"github.com/npillmayer/ensnano/export"
	"github.com/spf13/cobra"
)

// exportCmd is the parent of the export formats
var exportCmd = &cobra.Command{
	Use:                        "export",
	Short:                      "Write a design in the format of another tool",
	SuggestionsMinimumDistance: 3,
}

// oxdnaCmd writes oxDNA topology and configuration files
var oxdnaCmd = &cobra.Command{
	Use:   "oxdna [design]",
	Short: "Write oxDNA topology and configuration files",
	Long: `Write the nucleotides of a design as an oxDNA topology (.top) and
configuration (.oxdna). Insertions are given positions first.`,
	Args:                       cobra.ExactArgs(1),
	RunE:                       oxdnaExec,
	SuggestionsMinimumDistance: 3,
}

// staplesCmd writes the staple list
var staplesCmd = &cobra.Command{
	Use:                        "staples [design]",
	Short:                      "Write the staples of a design as CSV, numbered onto 96-well plates",
	Args:                       cobra.ExactArgs(1),
	RunE:                       staplesExec,
	SuggestionsMinimumDistance: 3,
	Aliases:                    []string{"staple"},
}

// importCmd is the parent of the import formats
var importCmd = &cobra.Command{
	Use:                        "import",
	Short:                      "Convert a file of another tool into a design",
	SuggestionsMinimumDistance: 3,
}

// cadnanoCmd converts cadnano files
var cadnanoCmd = &cobra.Command{
	Use:                        "cadnano [file]",
	Short:                      "Convert a cadnano file into a design",
	Args:                       cobra.ExactArgs(1),
	RunE:                       cadnanoExec,
	SuggestionsMinimumDistance: 3,
}

func init() {
	oxdnaCmd.Flags().StringP("out", "o", "", "base name of the output files (default: the input without extension)")
	staplesCmd.Flags().StringP("out", "o", "", "output CSV file (default: stdout)")
	cadnanoCmd.Flags().StringP("out", "o", "", "output design file (default: the input with extension .ens)")

	exportCmd.AddCommand(oxdnaCmd)
	exportCmd.AddCommand(staplesCmd)
	importCmd.AddCommand(cadnanoCmd)
	RootCmd.AddCommand(exportCmd)
	RootCmd.AddCommand(importCmd)
}

func withoutExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

func oxdnaExec(cmd *cobra.Command, args []string) error {
	d, _, err := loadDesign(args[0])
	if err != nil {
		return err
	}
	ox, err := export.ToOxDNA(d)
	if err != nil {
		return err
	}
	base, _ := cmd.Flags().GetString("out")
	if base == "" {
		base = withoutExt(args[0])
	}
	if err := ox.Save(base); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d nucleotides on %d strands written to %s.top, %s.oxdna\n",
		len(ox.Nucls), ox.NbStrands, base, base)
	return nil
}

func staplesExec(cmd *cobra.Command, args []string) error {
	d, _, err := loadDesign(args[0])
	if err != nil {
		return err
	}
	staples := export.Staples(d)
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return export.WriteStaplesCSV(cmd.OutOrStdout(), staples)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := export.WriteStaplesCSV(f, staples); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func cadnanoExec(cmd *cobra.Command, args []string) error {
	c, err := settings()
	if err != nil {
		return err
	}
	d, err := cadnano.Load(args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	if err := c.Apply(d); err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = withoutExt(args[0]) + ".ens"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d helices, %d strands\n", d.Helices.Len(), d.Strands.Len())
	return d.Save(out)
}
