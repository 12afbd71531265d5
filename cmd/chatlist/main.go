package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := execute(context.Background(), &app{}, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
