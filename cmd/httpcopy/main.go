package main

import (
	"os"

	"github.com/SmitUplenchwar2687/httpcopy/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
