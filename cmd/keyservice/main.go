package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/ssh-key-provisioning-backend/api/keyhandler"
	"github.com/ruteri/ssh-key-provisioning-backend/cmd/flags"
	"github.com/ruteri/ssh-key-provisioning-backend/httpserver"
	"github.com/ruteri/ssh-key-provisioning-backend/interfaces"
	"github.com/ruteri/ssh-key-provisioning-backend/storage"
	"github.com/urfave/cli/v2"
)

var KeyserviceLogFlag = flags.LogServiceFlagFn("keyservice")

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for the public key API",
}
var AdminListenAddrFlag = &cli.StringFlag{
	Name:  "admin-listen-addr",
	Value: "127.0.0.1:8081",
	Usage: "address to listen on for the admin API",
}
var StorageFlag = &cli.StringSliceFlag{
	Name:  "storage-uri",
	Usage: "key store backend URI, repeatable (file://, s3://, vault://, ipfs://, github://)",
}

func main() {
	app := &cli.App{
		Name:  "keyservice",
		Usage: "Serve deterministic SSH host keys",
		Flags: append(append(KmsFlags, []cli.Flag{ListenAddrFlag, AdminListenAddrFlag, StorageFlag, KeyserviceLogFlag}...), flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String(ListenAddrFlag.Name)
			adminListenAddr := cCtx.String(AdminListenAddrFlag.Name)
			bootstrapTimeout := cCtx.Int(KmsTimeoutFlag.Name)

			// Setup logger
			logger := flags.SetupLogger(cCtx)

			// Handle KMS initialization based on type
			kmsImpl, adminHandler, err := SetupKMS(cCtx, logger)
			if err != nil {
				logger.Error("Failed to initialize KMS", "err", err)
				return err
			}

			// Assemble the key store from the configured backend URIs
			var keyStore interfaces.KeyStore
			if uris := cCtx.StringSlice(StorageFlag.Name); len(uris) > 0 {
				locations := make([]interfaces.StorageBackendLocation, 0, len(uris))
				for _, uri := range uris {
					location, err := interfaces.NewStorageBackendLocation(uri)
					if err != nil {
						logger.Error("Invalid storage URI", "uri", uri, "err", err)
						return err
					}
					locations = append(locations, location)
				}

				keyStore, err = storage.NewKeyStoreFactory(logger).CreateMultiStore(locations)
				if err != nil {
					logger.Error("Failed to create key store", "err", err)
					return err
				}
				logger.Info("Key store configured", "backends", len(locations))
			}

			handler := keyhandler.NewHandler(kmsImpl, keyStore, logger)

			publicMux := chi.NewRouter()
			handler.RegisterRoutes(publicMux)

			adminMux := chi.NewRouter()
			handler.RegisterAdminRoutes(adminMux)
			if adminHandler != nil {
				adminHandler.RegisterRoutes(adminMux)
			}

			publicServer, err := httpserver.New(flags.ConfigureServer(cCtx, logger, listenAddr), publicMux)
			if err != nil {
				logger.Error("Failed to create public server", "err", err)
				return err
			}

			// The public server owns the metrics listener.
			adminCfg := flags.ConfigureServer(cCtx, logger, adminListenAddr)
			adminCfg.MetricsAddr = ""
			adminServer, err := httpserver.New(adminCfg, adminMux)
			if err != nil {
				logger.Error("Failed to create admin server", "err", err)
				return err
			}

			adminServer.RunInBackground()

			if adminHandler != nil {
				logger.Info("Waiting for KMS bootstrap to complete", "timeout_seconds", bootstrapTimeout)

				ctx, cancel := context.WithTimeout(context.Background(), time.Duration(bootstrapTimeout)*time.Second)
				defer cancel()

				if _, err := adminHandler.WaitForBootstrap(ctx); err != nil {
					logger.Error("KMS bootstrap failed", "err", err)
					adminServer.Shutdown()
					return err
				}
				logger.Info("KMS bootstrap completed successfully")
			}

			publicServer.RunInBackground()

			// Wait for termination signal
			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			// Shutdown servers gracefully
			publicServer.Shutdown()
			adminServer.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
