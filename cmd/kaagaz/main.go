package main

import (
	"os"

	"github.com/rdholakia/kaagaz/cmd/kaagaz/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
