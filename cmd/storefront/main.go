package main

import "github.com/ioproxxy/mosolarweb/internal/cmd"

func main() {
	cmd.Execute()
}
