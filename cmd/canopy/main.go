// Command canopy is the developer CLI: project scaffolding and scene
// inspection for the canopy tree runtime.
package main

import (
	"fmt"
	"os"

	"github.com/go-canopy/canopy/cmd/canopy/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
