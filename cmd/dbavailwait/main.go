// Package main is the entry point for dbavailwait.
package main

import (
	"os"
)

func main() {
	os.Exit(exitCode(Execute()))
}
