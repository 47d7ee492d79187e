package main

import (
	"context"
	"fmt"
	"os"

	"github.com/denizgursoy/cacik-reporter/internal/app"
)

func main() {
	if err := app.StartApplication(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
