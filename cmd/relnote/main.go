// Package main provides the relnote changelog toolkit CLI.
package main

import (
	"os"

	"github.com/relnote-labs/relnote/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
