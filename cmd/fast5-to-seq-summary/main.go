package main

import "os"

// main is the entry point for the fast5-to-seq-summary application.
func main() {
	os.Exit(Execute())
}
