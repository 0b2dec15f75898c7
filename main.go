package main

import "github.com/taskdeck/cli/internal/cli"

func main() {
	cli.Execute()
}
