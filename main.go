// The main package for the board-crawler executable.
package main

import (
	"github.com/JakeFAU/board-crawler/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
