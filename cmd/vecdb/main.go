package main

import "vecdb/internal/cli"

func main() {
	cli.Execute()
}
