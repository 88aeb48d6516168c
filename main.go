package main

import "github.com/dyike/SectorsGo/internal/cli"

func main() {
	cli.Run()
}
