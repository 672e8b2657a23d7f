package main

import "github.com/vietddude/extractor/internal/cli"

func main() {
	cli.Execute()
}
