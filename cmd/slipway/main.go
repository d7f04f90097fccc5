package main

import (
	"fmt"

	slipwaycmd "github.com/slipway-ci/slipway-cmd"
)

func main() {
	version, err := slipwaycmd.GetVersion()
	if err != nil {
		fmt.Println("Failed to load version:", err)
	}
	execute(version)
}
