package main

import (
	"github.com/nanovms/bootimage/cmd"
)

func main() {
	cmd.GetRootCommand().Execute()
}
