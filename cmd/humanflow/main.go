package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/humanflow/internal/app"
)

func main() {
	if err := app.Run(nil, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "humanflow: %v\n", err)
		os.Exit(1)
	}
}
