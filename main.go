package main

import "github.com/energyaudit/auditmig/cmd"

func main() {
	cmd.Execute()
}
