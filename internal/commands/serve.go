package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"syscall"

	"github.com/enrichman/httpgrace"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/bassista/go_sam/internal/api/middleware"
	"github.com/bassista/go_sam/internal/api/route"
	"github.com/bassista/go_sam/internal/config"
	"github.com/bassista/go_sam/internal/logger"
	"github.com/bassista/go_sam/internal/view"
)

func addServe(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the headless process and its control API",
		Example: `
SAM_SERVER_PORT=9000 sam serve
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	topLevel.AddCommand(cmd)
}

func runServe(ctx context.Context) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	a.Coordinator.SetPanicReporter(middleware.HoneybadgerPanicReporter(logger.Logger))
	if err := a.StartWatchers(); err != nil {
		return err
	}
	logger.WithComponent("main").Infof("App will run on port: %d", a.Config.Server.Port)

	// the games list is filled once at startup, like opening the picker
	a.Dispatcher.Post(func(view.View) { a.OnRefreshRequested() })

	gin.DefaultWriter = logger.Logger.Writer()
	gin.DefaultErrorWriter = logger.Logger.Writer()

	r := route.SetupRoutes(a, logger.Logger)
	srv := createGraceHttpServer(a.BaseCtx, "main-server", a.Config.Server, r)

	if err := srv.ListenAndServe(fmt.Sprintf(":%d", a.Config.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func createGraceHttpServer(ctx context.Context, name string, serverConfig config.ServerConfig, r *gin.Engine) *httpgrace.Server {
	slogLogger := slog.New(slog.NewTextHandler(logger.Logger.Writer(), nil))

	return httpgrace.NewServer(r,
		httpgrace.WithTimeout(serverConfig.ShutDownTimeout),
		httpgrace.WithSignals(syscall.SIGTERM, syscall.SIGINT),
		httpgrace.WithLogger(slogLogger),
		httpgrace.WithBeforeShutdown(func() {
			logger.WithComponent("http").Infof("Shutting down %s server....", name)
		}),
		httpgrace.WithServerOptions(
			httpgrace.WithReadTimeout(serverConfig.ReadTimeout),
			httpgrace.WithWriteTimeout(serverConfig.WriteTimeout),
			httpgrace.WithIdleTimeout(serverConfig.IdleTimeout),
			func(srv *http.Server) {
				srv.BaseContext = func(_ net.Listener) context.Context {
					return ctx
				}
			},
			func(srv *http.Server) {
				srv.ErrorLog = log.New(logger.Logger.Writer(), fmt.Sprintf("[%s] ", name), log.LstdFlags)
			},
		),
	)
}
