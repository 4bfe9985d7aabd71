// Command facturador runs the electronic invoicing service and its
// operator tooling.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := root().cmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "facturador: %v\n", err)
		os.Exit(1)
	}
}
