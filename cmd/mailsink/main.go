package main

import "github.com/okanacar/mailsink/internal/cli"

func main() {
	cli.Execute()
}
