package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/unfold/cmd/unfold"
	"github.com/arthur-debert/unfold/internal/version"
)

func main() {
	rootCmd := unfold.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "UNFOLD",
		Section: "1",
		Source:  "unfold " + version.Version,
		Manual:  "unfold manual",
	}

	if err := doc.GenMan(rootCmd, header, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
