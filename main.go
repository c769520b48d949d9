// The main package for the agenda-sync executable.
package main

import (
	"github.com/hfujimori/agenda-sync/cmd"
)

func main() {
	cmd.Execute()
}
