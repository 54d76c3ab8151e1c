package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// A cancelled run has already printed its own summary.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "watchmate:", err)
		}
		os.Exit(1)
	}
}
