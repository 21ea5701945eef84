package main

import (
	"os"

	"github.com/kroma-labs/httpfacade/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
