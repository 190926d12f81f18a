// Command smogctl runs the smog correlation analysis offline against
// collector exports and queries the district registry.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
