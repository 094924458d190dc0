package main

import (
	"github.com/logtap/logtap/internal/cli"
)

func main() {
	cli.Execute()
}
