package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/joho/godotenv"

	"github.com/mobiletest/farmctl/apps/farmctl/cmd"
)

func main() {
	// AWS credentials are commonly kept in a project .env; missing files
	// are fine, the SDK falls back to its normal credential chain.
	_ = godotenv.Load()

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "farmctl crashed: %v\n", r)
			if os.Getenv("FARMCTL_DEBUG") != "" {
				debug.PrintStack()
			}
			os.Exit(2)
		}
	}()

	cmd.Execute()
}
