package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/inkwell/services"
	"github.com/cppla/inkwell/store"
	"github.com/cppla/inkwell/utils"
)

// StatsController serves the About page with site totals and the health probe.
type StatsController struct {
	svc *services.Service
}

func NewStatsController(svc *services.Service) *StatsController {
	return &StatsController{svc: svc}
}

// About shows the site counters. A failed count renders as zeros instead of failing the page.
func (s *StatsController) About(ctx *gin.Context) {
	stats, err := s.svc.About(ctx.Request.Context())
	if err != nil {
		utils.Sugar.Warnw("about stats unavailable", "error", err)
		stats = store.Stats{}
	}
	render(ctx, http.StatusOK, "about.html", gin.H{"Title": "About", "Stats": stats})
}

func (s *StatsController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
