// The main package for the webapi-explorer executable.
package main

import (
	"github.com/JakeFAU/webapi-explorer/cmd"
)

func main() {
	cmd.Execute()
}
