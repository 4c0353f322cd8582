package cmd

import (
	"context"
	"event-registration/common/otel"
	inboundCron "event-registration/inbound/cron"
	inboundHttp "event-registration/inbound/http"
	"event-registration/outbound/store"
	"event-registration/registration"
	"fmt"
	"github.com/go-playground/validator/v10"
	"log"
	"log/slog"
	"net/http"
	"os"
	"runtime/pprof"
	"time"
)

func runHttpServerCmd(ctx context.Context) {
	cfg := newCfg("env")

	if cfg.GetString("env") == "dev" {
		cpu, err := os.Create("http-cpu.prof")
		if err != nil {
			log.Fatalf("could not create CPU profile: %v", err)
		}
		defer cpu.Close()

		err = pprof.StartCPUProfile(cpu)
		if err != nil {
			log.Fatalf("could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()

		mem, err := os.Create("http-mem.prof")
		if err != nil {
			log.Fatalf("could not create memory profile: %v", err)
		}
		defer mem.Close()

		err = pprof.WriteHeapProfile(mem)
		if err != nil {
			log.Fatalf("could not write memory profile: %v", err)
		}
	}

	if endpoint := cfg.GetString("otel.endpoint"); endpoint != "" {
		shutdownTracer := otel.InitTracerProvider(ctx, endpoint)
		defer shutdownTracer()
	}

	validate := validator.New()

	db := newDb(cfg)
	defer db.Close()

	cacheClient := newRedis(cfg)
	defer cacheClient.Close()

	natsConn := newNats(cfg)
	defer natsConn.Close()

	js := newJs(natsConn)
	createStreamWorkQueue(ctx, js)

	formStore := &store.FormConfigStore{Db: db}
	inventoryStore := &store.InventoryStore{Db: db}
	registrationStore := &store.RegistrationStore{Db: db}

	orchestrator := &registration.Orchestrator{
		Forms:        formStore,
		Inventory:    inventoryStore,
		Store:        registrationStore,
		Codes:        &registration.CodeGenerator{},
		StoreTimeout: cfg.GetDuration("registration.store_timeout"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		slog.DebugContext(r.Context(), "health check")
		w.WriteHeader(http.StatusOK)
	})

	timeoutMiddleware := inboundHttp.TimeoutMiddleware(20 * time.Second)

	inboundHttp.RegisterTicketHttp(mux)
	inboundHttp.RegisterRegistrationHttp(mux, orchestrator, registrationStore, cacheClient, js, validate)
	inboundHttp.RegisterPaymentHttp(mux, js, validate)

	availabilityCron := inboundCron.AvailabilityCron{
		Cfg:       cfg,
		Cache:     cacheClient,
		Inventory: inventoryStore,
	}

	inboundHttp.RegisterAdminHttp(mux, availabilityCron)

	err := availabilityCron.SeedQuantityCache(ctx)
	if err != nil {
		log.Fatalln("unable to seed availability cache", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.GetInt("server.port")),
		Handler:           timeoutMiddleware(inboundHttp.CorsMiddleware(mux)),
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalln("unable to start server", err)
		}
	}()

	slog.Info("http server started")

	go func() {
		availabilityCron.Start(ctx)
	}()

	<-ctx.Done()

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutDown); err != nil {
		log.Fatalln("unable to shutdown server", err)
	}

	slog.Info("http server stopped")
}
