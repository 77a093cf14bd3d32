// Package main is the entry point for the cfgwcec CLI tool.
package main

import (
	"github.com/cfgwcec/cfgwcec/internal/climain"
)

func main() {
	climain.Execute()
}
