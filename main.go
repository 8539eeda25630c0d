package main

import "github.com/karnyvex/dominator/cmd"

func main() {
	cmd.Execute()
}
