package handler

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"storefront/internal/api"
	"storefront/internal/config"
	"storefront/internal/logger"

	"github.com/gin-gonic/gin"
)

var (
	router  *gin.Engine
	initErr error
	once    sync.Once
)

func initRouter() {
	cfg, err := config.Load()
	if err != nil {
		initErr = err
		return
	}

	// Serverless instances are reused between invocations, so state lives as long as the instance.
	gin.SetMode(gin.ReleaseMode)
	server, _, err := api.Bootstrap(context.Background(), cfg, logger.New(cfg.LogLevel))
	if err != nil {
		initErr = err
		return
	}
	router = server.GetRouter()
}

// Handler is the main entry point for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(initRouter)

	if initErr != nil {
		http.Error(w, fmt.Sprintf("Initialization failed: %v", initErr), http.StatusInternalServerError)
		return
	}

	router.ServeHTTP(w, r)
}
