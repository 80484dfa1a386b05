package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"roastery-service/internal/cms"
	"roastery-service/internal/models"
	"roastery-service/internal/service"
	"roastery-service/internal/store"
	"roastery-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	orders        *service.OrderService
	catalog       *service.CatalogService
	reviews       *service.ReviewService
	subscriptions *service.SubscriptionService
	stats         *service.StatsService
	pages         *cms.Client
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orders *service.OrderService,
	catalog *service.CatalogService,
	reviews *service.ReviewService,
	subscriptions *service.SubscriptionService,
	stats *service.StatsService,
	pages *cms.Client,
) *Handler {
	return &Handler{
		orders:        orders,
		catalog:       catalog,
		reviews:       reviews,
		subscriptions: subscriptions,
		stats:         stats,
		pages:         pages,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders/:ref", h.getOrder)

		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/products/:id/reviews", h.listReviews)
		v1.POST("/products/:id/reviews", h.submitReview)

		v1.POST("/subscribe", h.subscribe)
		v1.GET("/pages/:slug", h.getPage)

		admin := v1.Group("/admin")
		{
			admin.PATCH("/orders/:ref", h.updateOrder)
			admin.GET("/orders/export", h.exportOrders)
			admin.GET("/stats", h.getStats)
			admin.PATCH("/reviews/:id", h.moderateReview)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createOrder handles checkout submission
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotSettled) {
			c.JSON(http.StatusPaymentRequired, gin.H{
				"success": false,
				"error":   "Payment has not settled",
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to create order",
			"details": err.Error(),
		})
		return
	}

	body := gin.H{
		"success": true,
		"data": gin.H{
			"orderId":     resp.OrderID,
			"orderUuid":   resp.OrderUUID,
			"orderNumber": resp.OrderNumber,
			"status":      resp.Status,
			"total":       resp.Total,
			"createdAt":   resp.CreatedAt,
		},
	}
	// A settled payment with a delayed order record is still a 201: the
	// customer has been charged.
	if resp.Warning != "" {
		body["warning"] = resp.Warning
	}
	c.JSON(http.StatusCreated, body)
}

// getOrder handles order lookup by internal id or order number
func (h *Handler) getOrder(c *gin.Context) {
	view, err := h.orders.GetOrder(c.Request.Context(), c.Param("ref"))
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "Order not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to load order",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    view,
	})
}

// listProducts handles catalog listing
func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to load products",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": products})
}

// getProduct handles single product lookup
func (h *Handler) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid product ID"})
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": product})
}

// listReviews handles approved review listing for a product
func (h *Handler) listReviews(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid product ID"})
		return
	}

	reviews, err := h.reviews.ListApproved(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to load reviews",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": reviews})
}

// submitReview handles customer review submission
func (h *Handler) submitReview(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid product ID"})
		return
	}

	var req service.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	review, err := h.reviews.Submit(c.Request.Context(), id, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Failed to submit review",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": review})
}

// subscribe handles subscription signup
func (h *Handler) subscribe(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Name  string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	sub, err := h.subscriptions.Subscribe(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to subscribe",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": sub})
}

// getPage handles CMS page lookup
func (h *Handler) getPage(c *gin.Context) {
	page, err := h.pages.GetPage(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Page not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": page})
}

// updateOrder handles operator status updates
func (h *Handler) updateOrder(c *gin.Context) {
	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	result, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("ref"), &req)
	if err != nil {
		var transitionErr *models.InvalidTransitionError
		switch {
		case errors.Is(err, store.ErrEmptyUpdate):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "No updatable fields in request",
			})
		case errors.Is(err, store.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "Order not found",
			})
		case errors.As(err, &transitionErr):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error":   transitionErr.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Failed to update order",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       result.Order,
		"email_sent": result.EmailSent,
	})
}

// exportOrders streams the CSV order export
func (h *Handler) exportOrders(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="orders.csv"`)

	if err := h.orders.ExportOrdersCSV(c.Request.Context(), c.Writer); err != nil {
		// Headers may already be out; log and abort the stream.
		util.GetLogger().Error("CSV export failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
	}
}

// getStats handles the admin analytics summary
func (h *Handler) getStats(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	stats, err := h.stats.Daily(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to load stats",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

// moderateReview handles review approval/rejection
func (h *Handler) moderateReview(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid review ID"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	review, err := h.reviews.Moderate(c.Request.Context(), id, req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Failed to moderate review",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": review})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
