package main

import "github.com/tallykv/tally/cmd"

func main() {
	cmd.Execute()
}
