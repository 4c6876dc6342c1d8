package main

import (
	"log"

	"github.com/madio-cloud/signalement-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
