package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trove-app/trove/config"
	"github.com/trove-app/trove/database"
	"github.com/trove-app/trove/handlers/auth"
	"github.com/trove-app/trove/middleware/ratelimit"
	"github.com/trove-app/trove/server"
	"github.com/trove-app/trove/services/audit"
	"github.com/trove-app/trove/services/logging"
	"github.com/trove-app/trove/services/refreshtoken"
	"github.com/trove-app/trove/services/tokencodec"
	"github.com/trove-app/trove/session"
	"go.uber.org/fx"
)

// App wires the auth backend together. Callers must provide a
// handlers/auth.UserResolver through extra options; everything else is
// composed here.
type App struct {
	fx *fx.App
}

func New(cfg *config.Config, extra ...fx.Option) *App {
	options := []fx.Option{
		config.NewProvider(cfg),
		fx.Supply(database.WithModels(&refreshtoken.RefreshToken{})),
		logging.Module,
		database.Module,
		audit.Module,
		tokencodec.Module,
		refreshtoken.Module,
		session.Module,
		ratelimit.Module,
		server.Module,
		auth.Module,
	}
	options = append(options, extra...)

	return &App{fx: fx.New(options...)}
}

func (a *App) Start(ctx context.Context) error {
	return a.fx.Start(ctx)
}

func (a *App) Stop(ctx context.Context) error {
	return a.fx.Stop(ctx)
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() {
	if err := a.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.Stop(ctx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
	}
}
