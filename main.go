package main

import (
	"github.com/droplab/tidal/cli/cmd"
)

func main() {
	cmd.Execute()
}
