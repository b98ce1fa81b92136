// Command semindex indexes local files into a hybrid semantic/lexical
// index and serves search, annotation, and container-management
// operations over the CLI or the Model Context Protocol.
package main

import (
	"fmt"
	"os"

	"github.com/aman-cerp/semindex/cmd/semindex/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
