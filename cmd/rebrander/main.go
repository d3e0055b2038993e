package main

import (
	"fmt"
	"os"

	rebrander "github.com/thrawn01/rebrander"
)

func main() {
	if err := rebrander.RunCmd(os.Args, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
