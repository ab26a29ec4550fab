package main

import (
	"os"

	"github.com/vigil-io/vigil/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
