package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/carshowcase/showcase/internal/metrics"
	"github.com/carshowcase/showcase/internal/server"
	"github.com/carshowcase/showcase/internal/service"
)

const banner = `
     _
 ___| |__   _____      _____ __ _ ___  ___
/ __| '_ \ / _ \ \ /\ / / __/ _' / __|/ _ \
\__ \ | | | (_) \ V  V / (_| (_| \__ \  __/
|___/_| |_|\___/ \_/\_/ \___\__,_|___/\___|
`

func newServeCmd() *cobra.Command {
	var dev bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Showcase API server",
		Long:  "Start the HTTP server that exposes the auth, users, vehicles and files APIs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), dev)
		},
	}

	cmd.Flags().IntP("port", "p", 3001, "HTTP listen port")
	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Development mode (debug logging, random JWT secret if none is set)")

	vp.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	vp.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(ctx context.Context, dev bool) error {
	cfg, err := loadConfig(dev)
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, cfg.Logging, dev)
	slog.SetDefault(logger)

	fmt.Print(banner)
	fmt.Println()

	// Parsed values were checked by Validate.
	expiry, _ := cfg.Auth.Expiry()
	shutdown, _ := cfg.Server.ShutdownDuration()
	uploadLimit, _ := cfg.Server.UploadLimit()

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		logger.Warn("no auth.jwt_secret set; using a random secret, tokens will not survive a restart")
	}

	// 1. Database
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("store initialized", "driver", st.Driver())

	// 2. Auth
	hasher, err := service.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		st.Close()
		return err
	}
	tokens, err := service.NewTokenIssuer(secret, expiry, service.WithIssuer(cfg.Auth.Issuer))
	if err != nil {
		st.Close()
		return err
	}
	logger.Info("auth initialized", "issuer", cfg.Auth.Issuer, "token_lifetime", tokens.Lifetime(), "bcrypt_cost", cfg.Auth.BcryptCost)
	creds := service.NewCredentialStore(st, hasher)
	authSvc, err := service.NewAuthService(creds, tokens)
	if err != nil {
		st.Close()
		return err
	}

	// 3. File storage
	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		st.Close()
		return fmt.Errorf("init file storage: %w", err)
	}
	logger.Info("file storage initialized", "backend", cfg.Storage.Backend)

	// 4. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewCollector(reg)

	// 5. First-run check
	admins, err := st.CountAdmins(ctx)
	if err != nil {
		logger.Warn("failed to check for admin", "error", err)
	} else if admins == 0 {
		logger.Warn("no admin account found - run: showcase admin create")
	}

	// 6. Build and start HTTP server
	srvCfg := server.Config{
		Host:                  cfg.Server.Host,
		Port:                  cfg.Server.Port,
		ShutdownTimeout:       shutdown,
		CORSOrigins:           cfg.Server.CORSOrigins,
		MaxUploadSize:         uploadLimit,
		Version:               appVersion,
		TrustProxyHeaders:     cfg.Server.TrustProxyHeaders,
		RateLimitEnabled:      cfg.RateLimit.Enabled,
		RequestsPerMinute:     cfg.RateLimit.RequestsPerMinute,
		AuthRequestsPerMinute: cfg.RateLimit.AuthRequestsPerMinute,
	}

	srv, err := server.New(srvCfg, server.Deps{
		Store:    st,
		Auth:     authSvc,
		Users:    service.NewUserService(creds, blobs),
		Vehicles: service.NewVehicleService(st),
		Files:    service.NewFileService(st, blobs, cfg.Storage.MaxFiles),
		Metrics:  recorder,
		Gatherer: reg,
	}, logger)
	if err != nil {
		st.Close()
		return err
	}

	fmt.Printf("→ Showcase %s\n", appVersion)
	fmt.Printf("→ Listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ API:        http://%s:%d/api\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()

	return srv.ListenAndServe()
}

// randomSecret returns a 256-bit hex secret for dev mode.
func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate dev secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
