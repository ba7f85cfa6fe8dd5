package main

import (
	"log"

	"go-silversense/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("silversense: %v", err)
	}
}
