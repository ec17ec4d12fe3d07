package main

import (
	"os"

	"github.com/SahilWadhwani/threathunt-console/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
