// dispatchd is the emergency patient dispatch service: it broadcasts one
// patient case to multiple hospitals over parallel phone calls and reports
// which hospital accepted.
package main

import (
	"fmt"
	"os"

	"github.com/voicebridge/dispatch/cmd/dispatchd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
