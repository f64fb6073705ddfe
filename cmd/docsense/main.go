package main

import "github.com/markdave123-py/docsense/internal/cli"

func main() {
	cli.Execute()
}
