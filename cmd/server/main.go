package main

import (
	"log"

	httpapi "battleship/internal/api/http"
	"battleship/internal/api/ws"
	"battleship/internal/config"
	"battleship/internal/registry"
)

func main() {
	cfg := config.Load()

	reg := registry.New(cfg.Game)
	hub := ws.NewHub(cfg.PingInterval)
	hub.SetHandler(ws.NewDispatcher(reg, hub))

	r := httpapi.SetupRouter(reg, hub, cfg)

	log.Printf("listening on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}
