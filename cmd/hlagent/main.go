// Command hlagent approves a session agent for a Hyperliquid wallet and
// trades through it.
package main

import (
	"os"
)

func main() {
	os.Exit(newApp(os.Stdout, os.Stderr).run(os.Args[1:]))
}
