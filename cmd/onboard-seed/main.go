// Command onboard-seed writes the onboarding fixtures to the database and removes them again.
//
//	onboard-seed seed --scenario=full   # upsert every fixture row
//	onboard-seed cleanup --dry-run      # report what would be deleted
//	onboard-seed scenarios              # list seed and harness scenarios
//	onboard-seed migrate up             # apply the SQL schema
package main

import (
	"fmt"
	"os"

	"github.com/onboardkit/harness/cmd/onboard-seed/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
