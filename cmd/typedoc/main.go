package main

import (
	"os"

	"github.com/vitalvas/typedoc/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
