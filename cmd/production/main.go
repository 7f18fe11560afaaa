package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vsinha/production/pkg/interfaces/cli/commands"
)

func main() {
	ctx := context.Background()
	if err := commands.Main(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
