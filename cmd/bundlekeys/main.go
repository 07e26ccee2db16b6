// Command bundlekeys redeems bundle-issued store keys.
package main

import (
	"os"

	"github.com/roach88/bundlekeys/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
