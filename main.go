package main

import "github.com/riftcode/volsearch/cmd"

func main() {
	cmd.Execute()
}
