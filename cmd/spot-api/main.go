// spot-api es el backend de SPOT: broker entre el frontend, el IdP, la
// allowlist en Postgres y el runtime del agente conversacional.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/musclepoints/spot-backend/internal/agent"
	"github.com/musclepoints/spot-backend/internal/cache"
	"github.com/musclepoints/spot-backend/internal/config"
	"github.com/musclepoints/spot-backend/internal/email"
	"github.com/musclepoints/spot-backend/internal/http/controllers"
	"github.com/musclepoints/spot-backend/internal/http/helpers"
	"github.com/musclepoints/spot-backend/internal/http/router"
	"github.com/musclepoints/spot-backend/internal/http/services/auth"
	"github.com/musclepoints/spot-backend/internal/http/services/invite"
	"github.com/musclepoints/spot-backend/internal/http/services/session"
	"github.com/musclepoints/spot-backend/internal/http/services/users"
	"github.com/musclepoints/spot-backend/internal/idp"
	"github.com/musclepoints/spot-backend/internal/observability/logger"
	"github.com/musclepoints/spot-backend/internal/rate"
	"github.com/musclepoints/spot-backend/internal/store/pg"
)

func main() {
	configPath := flag.String("config", "config.yaml", "ruta del archivo de configuración")
	flag.Parse()

	// .env es opcional; en producción las variables vienen del entorno.
	_ = godotenv.Load()

	// Sin archivo de config se arranca con defaults + entorno.
	if _, err := os.Stat(*configPath); err != nil {
		*configPath = ""
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		// Logger todavía no inicializado.
		panic("config: " + err.Error())
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "spot-api"})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("spot-api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- storage ---
	store, err := pg.New(ctx, cfg.Storage.DSN, pg.PoolConfig{
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MinIdleConns:    cfg.Storage.Postgres.MinIdleConns,
		ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatal("pg pool init failed", logger.Err(err))
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		// La DB puede estar caída en el arranque; los requests fallarán hasta
		// que vuelva, pero el proceso no se cae.
		log.Warn("migrations not applied", logger.Err(err))
	}

	// --- cache ---
	cacheClient, err := cache.New(cache.Config{
		Kind:     cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		log.Fatal("cache init failed", logger.Err(err))
	}
	defer func() { _ = cacheClient.Close() }()

	// --- idp ---
	idpCfg := idp.Config{
		Region:       cfg.IDP.Region,
		UserPoolID:   cfg.IDP.UserPoolID,
		ClientID:     cfg.IDP.ClientID,
		ClientSecret: cfg.IDP.ClientSecret,
		Domain:       cfg.IDP.Domain,
		RedirectURI:  cfg.IDP.RedirectURI,
		GroupsClaim:  cfg.IDP.GroupsClaim,
	}
	keys := idp.NewKeyCache(idpCfg.JWKSURL())
	verifier := idp.NewVerifier(keys, idpCfg)
	idpClient := idp.NewClient(idpCfg)
	adminClient := idp.NewAdminClient(cfg.IDP.Admin.BaseURL, cfg.IDP.Admin.APIKey)

	// --- email ---
	var sender email.Sender = email.Noop{}
	if cfg.SMTP.Host != "" {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.User,
			Password:  cfg.SMTP.Pass,
			FromEmail: cfg.SMTP.FromEmail,
			TLSMode:   cfg.SMTP.TLS,
		})
	} else {
		log.Warn("smtp not configured, invite emails disabled")
	}

	// --- services ---
	gate := auth.NewGate(verifier, store, cfg.Auth.AllowedDomain, cfg.Auth.AllowedGroups)
	cookieOpts := helpers.CookieOptions{
		Name:     cfg.Auth.Cookie.Name,
		Domain:   cfg.Auth.Cookie.Domain,
		Secure:   cfg.Auth.Cookie.Secure,
		SameSite: helpers.ParseSameSite(cfg.Auth.Cookie.SameSite),
	}
	cookies := session.NewCookieManager(cookieOpts, verifier)
	invites := invite.NewService(store, sender, cfg.Auth.AllowedDomain,
		cfg.Auth.FrontendAcceptURL, cfg.InviteWindow())
	usersSvc := users.NewService(store, adminClient)

	agentClient := agent.New(agent.Config{
		BaseURL:     cfg.Agent.BaseURL,
		AgentID:     cfg.Agent.AgentID,
		AliasID:     cfg.Agent.AliasID,
		ReadTimeout: config.Duration(cfg.Agent.ReadTimeout, 120*time.Second),
		MaxRetries:  cfg.Agent.MaxRetries,
		RetryDelay:  config.Duration(cfg.Agent.RetryDelay, 2*time.Second),
	})

	// --- router ---
	handler := router.New(router.Deps{
		Auth:             controllers.NewAuthController(idpClient, gate, cookies, invites),
		Users:            controllers.NewUsersController(usersSvc),
		Internal:         controllers.NewInternalController(store, cacheClient, cfg.Auth.InternalAPIKey),
		Chat:             controllers.NewChatController(agentClient),
		Health:           controllers.NewHealthController(store, cacheClient),
		Gate:             gate,
		CookieName:       cfg.Auth.Cookie.Name,
		CORSOrigins:      cfg.Server.CORSAllowedOrigins,
		AcceptLimiter:    buildLimiter(cfg, cacheClient, cfg.Rate.Accept.Limit, cfg.Rate.Accept.Window, "rl:accept:"),
		AllowlistLimiter: buildLimiter(cfg, cacheClient, cfg.Rate.Allowlist.Limit, cfg.Rate.Allowlist.Window, "rl:allowlist:"),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// El agente puede tardar hasta 2 minutos; el write timeout va por encima.
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", logger.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", logger.Err(err))
		os.Exit(1)
	}
	log.Info("bye")
}

// buildLimiter elige el backend del rate limit según el cache configurado:
// Redis si hay (ventana compartida entre instancias), memoria si no.
func buildLimiter(cfg *config.Config, c cache.Client, limit int, window, prefix string) rate.Limiter {
	if !cfg.Rate.Enabled {
		return nil
	}
	w := config.Duration(window, time.Minute)
	if r, ok := c.(*cache.Redis); ok {
		return rate.NewRedisLimiter(r.Client(), prefix, limit, w)
	}
	return rate.NewMemoryLimiter(limit, w)
}
