package main

import (
	"fmt"
	"os"

	"github.com/kjk/linestore/log"
)

func main() {
	err := NewRootCommand().Execute()
	log.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
