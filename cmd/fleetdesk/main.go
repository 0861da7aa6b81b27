package main

import "github.com/fleetdesk/fleetdesk/cmd/fleetdesk/cmd"

func main() {
	cmd.Execute()
}
