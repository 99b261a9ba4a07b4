package main

import "github.com/username/mgscheck/src/cli"

func main() {
	cli.Execute()
}
