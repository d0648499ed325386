package app

import (
	"context"
	"fmt"
	"strings"

	"sidecrew/internal/config"
	"sidecrew/internal/delivery/http/handler"
	"sidecrew/internal/delivery/http/middleware"
	"sidecrew/internal/delivery/http/routes"
	v1 "sidecrew/internal/delivery/http/routes/v1"
	"sidecrew/internal/pkg/logger"
	"sidecrew/internal/usecase/status"
	"sidecrew/internal/ws"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/static"
)

// Proof uploads are capped at 10MB in the handler; leave room for the
// multipart envelope.
const bodyLimit = 12 * 1024 * 1024

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New builds the HTTP app on top of an existing container.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{
		AppName:   c.Config.App.AppName,
		BodyLimit: bodyLimit,
	})

	registerGlobalMiddleware(f, c.Log)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

func Bootstrap(ctx context.Context, cfg config.Config, log *logger.Logger) (*App, func() error, error) {
	c, err := NewContainer(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return New(c), c.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, log *logger.Logger) {
	if app == nil {
		return
	}

	errMw := middleware.NewErrorMiddleware(log)
	app.Use(errMw.Middleware())
	app.Use(cors.New())

	accessLog := middleware.NewAccessLogMiddleware(log)
	app.Use(accessLog.Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil || c == nil {
		return
	}

	if c.Config.Blob.Backend == config.BlobBackendLocal && c.Config.Blob.LocalDir != "" {
		app.Use("/uploads", static.New(c.Config.Blob.LocalDir))
	}

	api := v1.Handlers{
		Auth:      handler.NewAuthHandler(c.Auth),
		Proximity: handler.NewProximityHandler(c.Nearby),
		Client:    handler.NewClientHandler(c.Lifecycle, c.Boards),
		Agent:     handler.NewAgentHandler(c.Lifecycle, c.Boards),
		Worker:    handler.NewWorkerHandler(c.Lifecycle, c.Boards, c.Blobs, c.Log),
		Profile:   handler.NewProfileHandler(c.Profiles, c.Blobs, c.Log),
		Admin:     handler.NewAdminHandler(c.Admin),
	}

	registry := routes.NewRegistry(
		handler.NewHealthHandler(status.NewService(c.Store, c.Cache, c.Store.Repos().Jobs, c.Hub)),
		ws.NewHandler(c.Hub, c.Auth, c.Log),
		api,
		middleware.NewAuthMiddleware(c.Auth),
	)
	registry.Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
