package server

import (
	"context"
	"net/http"

	"recipedia/internal/handlers"
	applog "recipedia/internal/log"
)

func newRouter(mediaDir string) http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")

	mux.HandleFunc("/healthz", handlers.Health)
	mux.HandleFunc("/api/user/create", handlers.CreateUser)
	mux.HandleFunc("/api/user/token", handlers.CreateToken)
	mux.Handle("/api/user/me", handlers.RequireAuthentication(http.HandlerFunc(handlers.Me)))

	mux.Handle("/api/recipe/tags", handlers.RequireAuthentication(http.HandlerFunc(handlers.TagCollection)))
	mux.Handle("/api/recipe/ingredients", handlers.RequireAuthentication(http.HandlerFunc(handlers.IngredientCollection)))
	mux.Handle("/api/recipe/recipes", handlers.RequireAuthentication(http.HandlerFunc(handlers.RecipeCollection)))
	mux.Handle("/api/recipe/recipes/", handlers.RequireAuthentication(http.HandlerFunc(handlers.RecipeResource)))

	if mediaDir != "" {
		mux.Handle("/media/", http.StripPrefix("/media/", http.FileServer(http.Dir(mediaDir))))
		applog.Debug(context.Background(), "route registered", "path", "/media/", "static", true)
	}

	return mux
}
