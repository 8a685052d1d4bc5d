package main

import (
	"github.com/sentinelops/copilot/internal/cli"
)

func main() {
	cli.Execute()
}
