// The main package for the aeroresearch executable.
package main

import (
	"github.com/r-baldridge/jules-aero-researcher/cmd"
)

func main() {
	cmd.Execute()
}
