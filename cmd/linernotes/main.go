package main

import "github.com/LavishGent/linernotes/internal/cli"

func main() {
	cli.Execute()
}
