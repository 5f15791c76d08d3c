// The main package for the webaudit360 executable.
package main

import (
	"github.com/JakeFAU/webaudit360/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
