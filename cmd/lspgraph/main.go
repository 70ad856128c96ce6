package main

import "lspgraph/internal/cli"

func main() {
	cli.Execute()
}
