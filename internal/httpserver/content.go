package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"headless-storefront/internal/content"
)

const maxListLimit = 100

type contentHandler struct {
	src    content.Source
	logger log.FieldLogger
}

func registerContentRoutes(rg *gin.RouterGroup, src content.Source, logger log.FieldLogger) {
	h := &contentHandler{src: src, logger: logger}
	rg.GET("/home", h.home)
	rg.GET("/settings", h.settings)
	rg.GET("/page/:slug", h.page)
	rg.GET("/products", h.products)
	rg.GET("/collections", h.collections)
}

func (h *contentHandler) home(c *gin.Context) {
	home, err := h.src.Home(c.Request.Context())
	if err != nil {
		h.failed(c, err, "Failed to fetch home data")
		return
	}
	c.JSON(http.StatusOK, home)
}

func (h *contentHandler) settings(c *gin.Context) {
	settings, err := h.src.Settings(c.Request.Context())
	if err != nil {
		h.failed(c, err, "Failed to fetch settings")
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *contentHandler) page(c *gin.Context) {
	page, err := h.src.Page(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.failed(c, err, "Failed to fetch page data")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *contentHandler) products(c *gin.Context) {
	docs, err := h.src.Products(c.Request.Context(), listLimit(c.Query("limit")))
	if err != nil {
		h.failed(c, err, "Failed to fetch products")
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *contentHandler) collections(c *gin.Context) {
	docs, err := h.src.Collections(c.Request.Context(), listLimit(c.Query("limit")))
	if err != nil {
		h.failed(c, err, "Failed to fetch collections")
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *contentHandler) failed(c *gin.Context, err error, msg string) {
	h.logger.WithError(err).WithField("path", c.FullPath()).Error("content request failed")
	c.String(http.StatusInternalServerError, msg)
}

// listLimit falls back to the default for missing or non-positive values.
func listLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return content.DefaultLimit
	}
	return min(n, maxListLimit)
}
