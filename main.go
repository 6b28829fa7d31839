// SPDX-License-Identifier: MPL-2.0

// Command duckfetch installs the DuckDB command-line client from GitHub
// releases.
package main

import cmd "github.com/duckfetch/duckfetch/cmd/duckfetch"

func main() {
	cmd.Execute()
}
