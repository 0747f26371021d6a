package main

import (
	"context"
	"os"

	"card_float_planner/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}
