package main

import (
	"github.com/npillmayer/ensnano/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
