package main

import "github.com/mvp-joe/pyrefactor/internal/cli"

func main() {
	cli.Execute()
}
