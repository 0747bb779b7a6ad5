package main

import (
	"rate-alerts/internal/cli"
)

func main() {
	cli.Execute()
}
