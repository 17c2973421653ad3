package main

import (
	"os"

	"github.com/redmonkez12/go-auth-flow/internal/config"
)

func main() {
	rootCmd := newRootCmd(config.Load)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
