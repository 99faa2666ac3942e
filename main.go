package main

import "github.com/mindmeet/mindmeet/internal/cli"

func main() {
	cli.Execute()
}
