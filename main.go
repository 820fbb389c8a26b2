package main

import "github.com/mpapenbr/pacelock/cmd"

func main() {
	cmd.Execute()
}
