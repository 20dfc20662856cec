// Command jpxreport parses JPX participant open interest and volume
// workbooks, builds the weekly strike and participant views, and serves
// both over HTTP.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
