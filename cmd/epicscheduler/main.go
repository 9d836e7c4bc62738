package main

import (
	"fmt"
	"os"

	"epicscheduler/internal/cmdline"
)

var version = "dev"

func main() {
	if err := cmdline.Execute(os.Args, version); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
