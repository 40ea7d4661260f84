package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// httpServer lo que serve usa de *fiber.App.
type httpServer interface {
	Listen(addr string) error
	ShutdownWithContext(ctx context.Context) error
}

type eventWorker interface {
	Run(ctx context.Context) error
}

// serve atiende HTTP hasta que ctx termina. El worker de eventos se detiene después del
// servidor, así los commits de peticiones que terminan durante el apagado se publican.
func serve(ctx context.Context, srv httpServer, worker eventWorker, addr string, shutdownTimeout time.Duration, log zerolog.Logger) error {
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(dispatchCtx)
	})
	g.Go(func() error {
		return srv.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.ShutdownWithContext(shutdownCtx)
		stopDispatch()
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
