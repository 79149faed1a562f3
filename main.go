/*
Copyright © 2026 3 Leaps <info@3leaps.net>
*/
package main

import (
	"os"

	"github.com/fulmenhq/pysbom/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
