// Command pulsectl drives the persisted dashboard session from a terminal.
package main

import "github.com/vijayaragavaan2065/faculty-pulse-view/cmd/pulsectl/cmd"

func main() {
	cmd.Execute()
}
