package main

import "github.com/OpenTraceLab/pinmap/cmd/pinmap/cmd"

func main() {
	cmd.Execute()
}
