package rest

import (
	"fmt"
	"net/http"
	"time"
)

type gameController interface {
	gameState
	moveMaker
}

func Start(port string, controller gameController) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", pingHandler)
	mux.HandleFunc("/game/state", NewStateHandler(controller).Handle)
	mux.HandleFunc("/game/move", NewMoveHandler(controller).Handle)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
