package main

import (
	"log"

	"github.com/procurely/rfp-pilot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
