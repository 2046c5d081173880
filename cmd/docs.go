package cmd

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// page headers of the just-the-docs theme
const (
	rootPage = `---
layout: default
title: %s
nav_order: 0
has_children: true
permalink: /
---
`
	childPage = `---
layout: default
title: %s
parent: %s
nav_order: %d
has_children: %t
---
`
	grandchildPage = `---
layout: default
title: %s
parent: %s
grand_parent: %s
nav_order: %d
---
`
)

// docsCmd writes the Markdown documentation of all commands
var docsCmd = &cobra.Command{
	Use:                        "docs [directory]",
	Short:                      "Write Markdown documentation of the commands",
	Args:                       cobra.MaximumNArgs(1),
	RunE:                       docsExec,
	Hidden:                     true,
	SuggestionsMinimumDistance: 3,
}

func init() {
	RootCmd.AddCommand(docsCmd)
}

func docsExec(cmd *cobra.Command, args []string) error {
	dir := "./docs"
	if len(args) > 0 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return doc.GenMarkdownTreeCustom(RootCmd, dir, filePrepender, linkHandler)
}

// find looks up the command of a documentation page, named by the path of
// command names joined by underscores.
func find(names []string) (*cobra.Command, int) {
	c, order := RootCmd, 0
	for _, name := range names[1:] {
		var next *cobra.Command
		for i, sub := range c.Commands() {
			if sub.Name() == name {
				next, order = sub, i
				break
			}
		}
		if next == nil {
			return nil, 0
		}
		c = next
	}
	return c, order
}

// filePrepender adds the YAML header of a page.
func filePrepender(filename string) string {
	name := filepath.Base(filename)
	names := strings.Split(strings.TrimSuffix(name, path.Ext(name)), "_")
	c, order := find(names)
	if c == nil {
		return ""
	}
	switch len(names) {
	case 1:
		return fmt.Sprintf(rootPage, names[0])
	case 2:
		return fmt.Sprintf(childPage, names[1], names[0], order, c.HasSubCommands())
	default:
		n := len(names)
		return fmt.Sprintf(grandchildPage, names[n-1], names[n-2], names[n-3], order)
	}
}

// linkHandler links pages by their base name.
func linkHandler(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}
