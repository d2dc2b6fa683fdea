package main

import (
	"os"

	"github.com/Gurvan/gdtools/cli/gdformat/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
