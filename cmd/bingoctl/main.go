package main

import "github.com/mcoot/bingohall/internal/cli"

func main() {
	cli.Execute()
}
