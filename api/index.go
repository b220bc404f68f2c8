package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/duty-roster-go/pkg/config"
	"github.com/arnavshah/duty-roster-go/pkg/handlers"
	"github.com/arnavshah/duty-roster-go/pkg/logger"
)

var r *gin.Engine

func init() {
	gin.SetMode(gin.ReleaseMode)

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}

	h, err := handlers.FromConfig(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("init handler", zap.Error(err))
	}
	r = h.NewRouter()
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
