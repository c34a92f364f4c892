// kakomon - Exam Transcript Loader
//
// kakomon turns plain-text exam transcripts into structured questions,
// merges them with an answer key and loads them into a questions table.
package main

import (
	"os"

	"github.com/ccollicutt/kakomon/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
