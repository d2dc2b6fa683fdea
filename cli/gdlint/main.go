package main

import (
	"os"

	"github.com/Gurvan/gdtools/cli/gdlint/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
