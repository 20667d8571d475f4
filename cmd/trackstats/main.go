// trackstats answers "which bugs did this person confirm, verify, file or
// close?" against Bugzilla and GitHub, for the reports defined in a YAML file.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
