package main

import (
	"os"

	"github.com/wyattarnold/StageLP-WSOP/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
