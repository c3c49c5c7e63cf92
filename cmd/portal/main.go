package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aussiebroadwan/portal/internal/portal/app"
)

func main() {
	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		if app.IsConfigError(err) {
			fmt.Fprintf(os.Stderr, "portal: %v\n", err)
			os.Exit(2)
		}
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
