package main

import "github.com/forPelevin/scriptcut/internal/cli"

func main() {
	cli.Main()
}
