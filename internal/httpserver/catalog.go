package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"headless-storefront/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 250
)

type catalogHandler struct {
	catalog Catalog
	logger  log.FieldLogger
}

type pageQuery struct {
	First *int   `form:"first" binding:"omitempty,min=1,max=250"`
	After string `form:"after"`
}

type pageParams struct {
	First int
	After string
}

func registerCatalogRoutes(rg *gin.RouterGroup, catalog Catalog, logger log.FieldLogger) {
	h := &catalogHandler{catalog: catalog, logger: logger}
	rg.GET("/shop", h.shop)
	rg.GET("/status", h.status)
	rg.GET("/products", h.listProducts)
	rg.GET("/products/:handle", h.getProduct)
	rg.GET("/collections", h.listCollections)
	rg.GET("/collections/:handle", h.getCollection)
}

func (h *catalogHandler) shop(c *gin.Context) {
	shop, err := h.catalog.Shop(c.Request.Context())
	if err != nil {
		h.upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, shop)
}

func (h *catalogHandler) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.StoreStatus(c.Request.Context()))
}

func (h *catalogHandler) listProducts(c *gin.Context) {
	params, ok := bindPage(c)
	if !ok {
		return
	}
	conn, err := h.catalog.Products(c.Request.Context(), params.First, params.After)
	if err != nil {
		h.upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (h *catalogHandler) getProduct(c *gin.Context) {
	product, err := h.catalog.ProductByHandle(c.Request.Context(), c.Param("handle"))
	if err == nil && product == nil {
		err = domain.ErrNotFound
	}
	if err != nil {
		h.upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *catalogHandler) listCollections(c *gin.Context) {
	params, ok := bindPage(c)
	if !ok {
		return
	}
	conn, err := h.catalog.Collections(c.Request.Context(), params.First, params.After)
	if err != nil {
		h.upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (h *catalogHandler) getCollection(c *gin.Context) {
	collection, err := h.catalog.CollectionByHandle(c.Request.Context(), c.Param("handle"))
	if err == nil && collection == nil {
		err = domain.ErrNotFound
	}
	if err != nil {
		h.upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

func bindPage(c *gin.Context) (pageParams, bool) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "first must be between 1 and " + strconv.Itoa(maxPageSize)})
		return pageParams{}, false
	}
	params := pageParams{First: defaultPageSize, After: q.After}
	if q.First != nil {
		params.First = *q.First
	}
	return params, true
}

func (h *catalogHandler) upstreamError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.logger.WithError(err).WithField("path", c.FullPath()).Error("catalog request failed")
	c.JSON(http.StatusBadGateway, gin.H{"error": "upstream request failed"})
}
