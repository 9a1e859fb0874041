package main

import "github.com/ferroscan/ferroscan/cmd/ferroscan/cmd"

func main() {
	cmd.Execute()
}
