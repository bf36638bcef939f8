// Command auth runs the tabauth identity service.
package main

import (
	"fmt"
	"log"

	"github.com/aussiebroadwan/tabauth/internal/auth/app"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("start auth service: %w", err)
	}
	return application.Run()
}
