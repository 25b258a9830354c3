package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/homeplate/cart-service/internal/domain/entity"
	"github.com/homeplate/cart-service/internal/platform/logger"
	"github.com/homeplate/cart-service/internal/repository"
	"github.com/homeplate/cart-service/internal/service"
)

type Handler struct {
	stores   *service.StoreManager
	checkout service.CheckoutService
	orders   service.OrderService
	receipts service.ReceiptService
	log      logger.Logger
}

func NewHandler(
	stores *service.StoreManager,
	checkout service.CheckoutService,
	orders service.OrderService,
	receipts service.ReceiptService,
	log logger.Logger,
) *Handler {
	return &Handler{
		stores:   stores,
		checkout: checkout,
		orders:   orders,
		receipts: receipts,
		log:      log,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	cart := rg.Group("/cart")
	{
		cart.GET("", h.getCart)
		cart.POST("/items", h.addItem)
		cart.PATCH("/items/:listingId", h.updateItemQuantity)
		cart.DELETE("/items/:listingId", h.removeItem)
		cart.POST("/sync", h.syncCart)
	}

	rg.POST("/session/end", h.endSession)

	checkout := rg.Group("/checkout")
	{
		checkout.POST("", h.processCheckout)
		checkout.GET("/status", h.checkoutStatus)
		checkout.POST("/reset", h.resetCheckout)
	}

	orders := rg.Group("/orders")
	{
		orders.GET("", h.listOrders)
		orders.GET("/:orderId", h.getOrder)
		orders.POST("/:orderId/cancel", h.cancelOrder)
		orders.GET("/:orderId/receipt", h.getOrderReceipt)
	}
}

type addItemRequest struct {
	ListingID string `json:"listing_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type cartResponse struct {
	Cart  *entity.Cart `json:"cart"`
	Total float64      `json:"total"`
}

func newCartResponse(cart *entity.Cart) cartResponse {
	return cartResponse{Cart: cart, Total: cart.Total()}
}

func (h *Handler) getCart(c *gin.Context) {
	store := h.stores.ForUser(userID(c))
	c.JSON(http.StatusOK, newCartResponse(store.Snapshot()))
}

func (h *Handler) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	store := h.stores.ForUser(userID(c))
	cart, err := store.AddItem(c.Request.Context(), req.ListingID, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(cart))
}

func (h *Handler) updateItemQuantity(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	store := h.stores.ForUser(userID(c))
	cart, err := store.UpdateItemQuantity(c.Request.Context(), c.Param("listingId"), req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(cart))
}

func (h *Handler) removeItem(c *gin.Context) {
	store := h.stores.ForUser(userID(c))
	cart, err := store.RemoveItem(c.Request.Context(), c.Param("listingId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(cart))
}

// syncCart reloads the cart from durable rows, dropping items whose
// listing is no longer available. The dropped count lets the UI warn
// "some items in your cart are no longer available".
func (h *Handler) syncCart(c *gin.Context) {
	store := h.stores.ForUser(userID(c))
	cart, dropped, err := store.LoadFromDatabase(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	resp := gin.H{"cart": cart, "total": cart.Total()}
	if dropped > 0 {
		resp["dropped_items"] = dropped
		resp["warning"] = "some items in your cart are no longer available"
	}
	c.JSON(http.StatusOK, resp)
}

// endSession saves the cart one last time and releases the user's
// session store, so a long-running process does not accumulate stores
// for users who have logged out.
func (h *Handler) endSession(c *gin.Context) {
	uid := userID(c)
	store := h.stores.ForUser(uid)
	if err := store.SaveToDatabase(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	h.stores.Drop(uid)
	c.Status(http.StatusNoContent)
}

func (h *Handler) processCheckout(c *gin.Context) {
	result, err := h.checkout.ProcessCheckout(c.Request.Context(), userID(c), userEmail(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusConflict, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) checkoutStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.checkout.CheckoutState(userID(c)))
}

func (h *Handler) resetCheckout(c *gin.Context) {
	h.checkout.ResetCheckout(userID(c))
	c.JSON(http.StatusOK, gin.H{"status": entity.CheckoutIdle})
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("orderId"), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) cancelOrder(c *gin.Context) {
	order, err := h.orders.CancelOrder(c.Request.Context(), c.Param("orderId"), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) getOrderReceipt(c *gin.Context) {
	data, fileName, err := h.receipts.GenerateOrderReceipt(c.Request.Context(), c.Param("orderId"), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var unavailable *service.UnavailableError
	switch {
	case errors.Is(err, entity.ErrInvalidQuantity), errors.Is(err, entity.ErrItemNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrCheckoutInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrOrderAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Errorf("Internal error handling %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
