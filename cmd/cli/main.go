// Package main is the entry point for the dashctl CLI binary.
package main

import (
	"os"

	cli "admin-dashboard/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
