// Command joinengine runs the columnar join engine against a small
// built-in demo catalog, as a smoke-test harness for the execution
// core rather than a production query frontend.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
