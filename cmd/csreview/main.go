package main

import (
	"os"

	"github.com/dantiw/csreview/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
