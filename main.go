package main

import "github.com/hemanthsrinivasb/kaveesha-timekeeper/cmd"

func main() {
	cmd.Execute()
}
