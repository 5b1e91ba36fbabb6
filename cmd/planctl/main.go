// Package main provides planctl, an offline tool to generate and inspect session plans.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
