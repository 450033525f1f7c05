// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/ciocoa/manifest/cmd/manifest/commands"

func main() {
	commands.Execute()
}
