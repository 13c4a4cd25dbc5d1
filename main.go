// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/Quasek/pake/cmd/pake"

func main() {
	cmd.Execute()
}
