package main

import "github.com/tessro/spindle/internal/cli"

func main() {
	cli.Execute()
}
