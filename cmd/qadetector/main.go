// Command qadetector serves the widget and dashboard API and offers
// one-shot scans and project administration from the shell.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
