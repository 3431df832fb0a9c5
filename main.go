package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tableadmin/internal/app"
	intconfig "tableadmin/internal/config"
	router "tableadmin/internal/http"
	"tableadmin/internal/services"
	"tableadmin/internal/session"
	"tableadmin/internal/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	env, err := intconfig.LoadEnv()
	utils.ConfigureLogger(env.LogFormat, os.Stdout)
	if err != nil {
		utils.LogError("", "main", "load_env", err)
		os.Exit(1)
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, closeGateway, err := app.OpenGateway(ctx, env)
	if err != nil {
		utils.LogError("", "main", "open_gateway", err)
		os.Exit(1)
	}
	defer closeGateway()

	tickets := services.NewTicketSigner(env.ConfirmSecret)
	if env.ConfirmSecret == "" {
		utils.LogEvent("", "main", "tickets", "CONFIRM_SECRET not set, using a random key for this process")
	}
	reg := session.NewRegistry(gw, tickets, env.SessionTTL)
	reg.MaxSessions = env.MaxSessions
	go reg.Run(ctx, time.Minute)

	r := router.NewRouter(env, reg)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		utils.LogEvent("", "main", "listen", "console running at http://localhost"+env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError("", "main", "listen", err)
			stop()
		}
	}()

	<-ctx.Done()
	utils.LogEvent("", "main", "shutdown", "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError("", "main", "shutdown", err)
		return
	}
	utils.LogEvent("", "main", "shutdown", "server stopped cleanly")
}
