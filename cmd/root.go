// Package cmd is the command line interface of ensnano, for batch processing
// of DNA nanostructure designs.
package cmd

import (
	"fmt"
	"log"

	"github.com/npillmayer/ensnano/config"
	"github.com/npillmayer/ensnano/design"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var settingsFile string

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use: "ensnano",
	Short: `Process DNA nanostructure designs: discretize curved helices, search
scaffold shifts, suggest crossovers, relax helix rolls and convert files`,
	Version:       "0.5.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func init() {
	cobra.OnInitialize(initSettings)

	RootCmd.PersistentFlags().StringVarP(&settingsFile, "settings", "s", "", "settings file (yaml, json or toml)")
	RootCmd.PersistentFlags().StringP("parameters", "p", "", "helix parameter preset: ensnano-legacy, geary2014-dna or geary2014-rna")
	RootCmd.PersistentFlags().String("trace-level", "error", "trace level: error, info or debug")
	viper.BindPFlag("parameters", RootCmd.PersistentFlags().Lookup("parameters"))
	viper.BindPFlag("trace-level", RootCmd.PersistentFlags().Lookup("trace-level"))
}

// initSettings reads the settings file, if any.
func initSettings() {
	if settingsFile == "" {
		return
	}
	viper.SetConfigFile(settingsFile)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("cannot read settings %s: %v", settingsFile, err)
	}
}

// settings unmarshals the current settings and sets the trace level.
func settings() (config.Config, error) {
	c, err := config.FromViper(viper.GetViper())
	if err != nil {
		return c, err
	}
	c.SetTraceLevel()
	return c, nil
}

// loadDesign reads a design file and applies the settings to it.
func loadDesign(path string) (*design.Design, config.Config, error) {
	c, err := settings()
	if err != nil {
		return nil, c, err
	}
	d, err := design.Load(path)
	if err != nil {
		return nil, c, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Apply(d); err != nil {
		return nil, c, fmt.Errorf("%s: %w", path, err)
	}
	return d, c, nil
}

// saveDesign writes d to out, or back to in if out is empty.
func saveDesign(d *design.Design, in, out string) error {
	if out == "" {
		out = in
	}
	return d.Save(out)
}
