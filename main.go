package main

import "netinventory/internal/cli"

func main() {
	cli.Execute()
}
