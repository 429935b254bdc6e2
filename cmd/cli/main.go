// Command class-inspect disassembles JVM class files and scans class
// trees. See cmd.Execute for the command surface.
package main

import "github.com/class-inspect/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
