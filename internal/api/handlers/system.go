package handlers

import (
	"context"
	"net/http"

	"granito/internal/config"
	"granito/internal/database"
	"granito/internal/services/shopify"

	"github.com/gin-gonic/gin"
)

// ShopInfoSource is the Shopify call used to prove the credentials work.
type ShopInfoSource interface {
	GetShopInfo(ctx context.Context) (*shopify.Shop, error)
}

type SystemHandler struct {
	config *config.Config
	db     *database.Database
	shop   ShopInfoSource
}

// NewSystemHandler builds the handler. shop may be nil when Shopify is not
// configured.
func NewSystemHandler(cfg *config.Config, db *database.Database, shop ShopInfoSource) *SystemHandler {
	return &SystemHandler{config: cfg, db: db, shop: shop}
}

func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok", "service": "granito"})
}

// Check verifies configuration, database reachability and Shopify access.
func (h *SystemHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	missing := h.config.Missing()
	if missing == nil {
		missing = []string{}
	}

	databaseStatus := gin.H{"ok": true, "driver": h.db.Driver}
	if err := h.db.Ping(ctx); err != nil {
		databaseStatus["ok"] = false
		databaseStatus["error"] = err.Error()
	}

	shopifyStatus := gin.H{"ok": false}
	if h.shop == nil {
		shopifyStatus["error"] = shopify.ErrNotConfigured.Error()
	} else if shop, err := h.shop.GetShopInfo(ctx); err != nil {
		shopifyStatus["error"] = err.Error()
	} else {
		shopifyStatus["ok"] = true
		shopifyStatus["shop"] = shop.Name
		shopifyStatus["domain"] = shop.MyshopifyDomain
	}

	ok := len(missing) == 0 && databaseStatus["ok"] == true && shopifyStatus["ok"] == true
	c.JSON(http.StatusOK, gin.H{
		"success": ok,
		"configuracion": gin.H{
			"ok":        len(missing) == 0,
			"faltantes": missing,
		},
		"database": databaseStatus,
		"shopify":  shopifyStatus,
	})
}
