package main

import (
	"context"
	"log"

	"github.com/agentregistry-dev/agentconsole/internal/console"
)

func main() {
	if err := console.App(context.Background()); err != nil {
		log.Fatal(err)
	}
}
