package main

import (
	"fmt"
	"os"

	"github.com/sergw-project/sergw/internal/exitcode"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitcode.For(err))
	}
}
