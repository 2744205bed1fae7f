/*
Package httpserver provides the operational shell around the service's API
handlers.

The server owns everything that is the same for every listener: request
logging, health and readiness endpoints, drain coordination for rolling
restarts, optional pprof, and the Prometheus metrics listener. The API
routes themselves come from an injected handler, so the key service runs
two instances of this server with different handlers:

 1. Public listener - host key routes, safe to expose
 2. Admin listener - bootstrap ceremony, signing and key uploads

# Operational Endpoints

  - /livez - process liveness, always 200 while the server runs
  - /readyz - readiness, 503 after drain until undrain
  - /drain - mark not ready and wait out the drain window
  - /undrain - mark ready again
  - /debug - pprof handlers, when enabled

# Usage Example

	cfg := &api.HTTPServerConfig{
	    ListenAddr:  ":8080",
	    MetricsAddr: ":9090",
	    Log:         logger,
	}

	mux := chi.NewRouter()
	handler.RegisterRoutes(mux)

	srv, err := httpserver.New(cfg, mux)
	if err != nil {
	    logger.Error("Failed to create server", "err", err)
	    os.Exit(1)
	}
	srv.RunInBackground()
	defer srv.Shutdown()
*/
package httpserver
