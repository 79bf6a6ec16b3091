// Command devserver runs an in-memory assessment backend for local
// development and demos.
package main

import (
	"log"
	"net/http"

	"github.com/langassess/langassess/internal/config"
	"github.com/langassess/langassess/internal/devserver"
)

func main() {
	cfg := config.FromEnv()
	srv := devserver.New(cfg, nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
