// cmd/portal/main.go
package main

import (
	"os"

	"github.com/shnoopysol/gif-portal/internal/adapters/in/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
