package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qazna.org/internal/config"
	"qazna.org/internal/credentials"
	"qazna.org/internal/crypto"
	"qazna.org/internal/grpcapi"
	"qazna.org/internal/httpapi"
	"qazna.org/internal/jwtkernel"
	"qazna.org/internal/oauthfed"
	"qazna.org/internal/obs"
	"qazna.org/internal/session"
	"qazna.org/internal/store/sqlite"
	"qazna.org/internal/token"
)

var version = "0.1.0"

func main() {
	obs.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	st, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer st.Close()

	privateKey, err := crypto.ImportES256PrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("import jwt private key: %v", err)
	}
	publicKey, err := crypto.ImportES256PublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("import jwt public key: %v", err)
	}

	tokens := token.New(st, time.Duration(cfg.RefreshTokenTTLDays)*24*time.Hour, time.Duration(cfg.AuthCodeTTLSeconds)*time.Second)
	jwtKernel := jwtkernel.New(privateKey, publicKey, cfg.JWTKeyID, cfg.AuthDomain, time.Duration(cfg.AccessTokenTTLSeconds)*time.Second)
	credsService := credentials.New(st, tokens, st, cfg.IsProduction(), time.Hour)
	fedService := oauthfed.New(st, tokens, st, cfg, 5*time.Minute)
	sessionService := session.New(st, tokens, jwtKernel, st, cfg.IsProduction())

	api := &httpapi.API{
		Store:       st,
		Credentials: credsService,
		OAuthFed:    fedService,
		Session:     sessionService,
		JWT:         jwtKernel,
		Config:      cfg,
		Version:     version,
		DeployedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Router(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcSrv := grpcapi.New(st)
	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen grpc: %v", err)
	}

	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	go runSweepLoop(sweepCtx, st, grpcSrv)

	go func() {
		log.Printf("grpc health surface listening on %s", cfg.GRPCAddr)
		if err := grpcSrv.GRPC().Serve(grpcListener); err != nil {
			log.Printf("grpc serve: %v", err)
		}
	}()

	go func() {
		log.Printf("qazna identity service %s listening on %s", version, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down")

	cancelSweep()
	grpcSrv.GracefulStop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown: %v", err)
	}
	log.Println("stopped")
}

// runSweepLoop periodically reclaims expired auth codes and federation
// flow states, and refreshes the gRPC health status from the store probe.
func runSweepLoop(ctx context.Context, st *sqlite.Store, health *grpcapi.Server) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	_ = health.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := st.Sweep(ctx, now); err != nil {
				log.Printf("sweep: %v", err)
			}
			if err := health.Probe(ctx); err != nil {
				log.Printf("health probe: %v", err)
			}
		}
	}
}
