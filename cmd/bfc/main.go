package main

import "github.com/barefootsplit/bfc/internal/cli"

func main() {
	cli.Execute()
}
