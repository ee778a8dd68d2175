// teamsactivity - Teams log activity timeline
//
// teamsactivity reads the Microsoft Teams desktop client's logs and reports
// when the computer was in use, block by block and day by day.
package main

import (
	"os"

	"github.com/ccollicutt/teamsactivity/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
