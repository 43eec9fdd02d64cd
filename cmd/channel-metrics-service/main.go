package main

import (
	"log"

	"github.com/tgmetrics/channel-metrics-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
