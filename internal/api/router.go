package api

import (
	"fmt"
	"net/http"

	_ "github.com/rohits-web03/dropkeep/docs"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/charmbracelet/log"
	"github.com/rs/cors"

	"github.com/rohits-web03/dropkeep/internal/api/handlers"
	"github.com/rohits-web03/dropkeep/internal/api/middleware"
	"github.com/rohits-web03/dropkeep/internal/config"
	"github.com/rohits-web03/dropkeep/internal/upload"
)

func SetupRouter(svc *upload.Service) http.Handler {
	mainMux := http.NewServeMux()
	c := cors.New(config.Envs.CorsConfig)
	h := handlers.NewHandler(svc)

	// ---------- PUBLIC ROUTES ----------
	mainMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	mainMux.HandleFunc("/docs/", httpSwagger.WrapHandler)

	// ---------- PROTECTED ROUTES ----------
	protectedMux := http.NewServeMux()

	fileMux := http.NewServeMux()
	fileMux.HandleFunc("POST /upload", h.Upload)
	// The chunk protocol multiplexes POST/HEAD/PATCH itself.
	fileMux.HandleFunc("/chunk", h.Chunk)
	fileMux.HandleFunc("DELETE /revert", h.Revert)
	fileMux.HandleFunc("POST /attach", h.Attach)
	fileMux.HandleFunc("GET /object", h.ObjectFiles)

	adminMux := http.NewServeMux()
	adminMux.HandleFunc("POST /sweep", h.Sweep)

	protectedMux.Handle("/files/",
		http.StripPrefix("/files", fileMux),
	)
	protectedMux.Handle("/admin/",
		http.StripPrefix("/admin", adminMux),
	)

	mainMux.Handle("/api/v1/",
		http.StripPrefix(
			"/api/v1",
			middleware.AuthMiddleware(protectedMux),
		),
	)

	log.Info("Router initialized")
	handler := c.Handler(mainMux)
	handler = middleware.Logger(handler)
	return handler
}
