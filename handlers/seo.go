package handlers

import (
	"bytes"
	"net/http"

	"asterias/services/sitemap"
	"asterias/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SEOHandler struct {
	generator *sitemap.Generator
	baseURL   string
}

func NewSEOHandler(generator *sitemap.Generator, baseURL string) *SEOHandler {
	return &SEOHandler{generator: generator, baseURL: baseURL}
}

func (h *SEOHandler) Sitemap(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.generator.Write(c.Request.Context(), &buf); err != nil {
		utils.LoggerFrom(c).Error("Failed to build sitemap", zap.Error(err))
		c.String(http.StatusServiceUnavailable, "sitemap unavailable")
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/xml; charset=utf-8", buf.Bytes())
}

func (h *SEOHandler) Robots(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=86400")
	c.String(http.StatusOK, sitemap.Robots(h.baseURL))
}

// HealthHandler reports the last dependency snapshot taken by the monitor.
type HealthHandler struct {
	monitor *utils.HealthMonitor
}

func NewHealthHandler(monitor *utils.HealthMonitor) *HealthHandler {
	return &HealthHandler{monitor: monitor}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	status := h.monitor.Status()
	if status.CheckedAt.IsZero() {
		status = h.monitor.Check(c.Request.Context())
	}
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
