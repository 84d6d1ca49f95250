// rfpdash is the RFP Platform client: it runs the backend pipeline, keeps the
// latest result and renders the pricing, technical, sales and dashboard pages.
//
// Usage:
//
//	rfpdash rfps list | rfps get <id>
//	rfpdash pipeline run | pipeline runs [--limit N]
//	rfpdash technical match <rfp-id>
//	rfpdash view pricing|technical|item <index>|dashboard|sales
//	rfpdash export xlsx [--out path]
//	rfpdash insights <page>
//	rfpdash watch
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	must(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) error {
	root, c := newRootCmd()
	defer c.close()

	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
