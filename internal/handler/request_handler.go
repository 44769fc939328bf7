package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/shareit-rental/service-shareit/internal/application"
	"github.com/shareit-rental/service-shareit/internal/common/middleware"
	"github.com/shareit-rental/service-shareit/internal/common/response"
)

// ItemRequestHandler handles HTTP requests for item requests.
type ItemRequestHandler struct {
	service *application.ItemRequestService
}

// NewItemRequestHandler creates a new ItemRequestHandler.
func NewItemRequestHandler(service *application.ItemRequestService) *ItemRequestHandler {
	return &ItemRequestHandler{service: service}
}

// RegisterRoutes registers all item request routes.
func (h *ItemRequestHandler) RegisterRoutes(r *gin.RouterGroup) {
	requests := r.Group("/requests")
	requests.Use(middleware.RequireUserID())
	{
		requests.POST("", h.CreateRequest)
		requests.GET("", h.GetOwnRequests)
		requests.GET("/all", h.GetOtherRequests)
		requests.GET("/:id", h.GetRequest)
	}
}

func (h *ItemRequestHandler) CreateRequest(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req application.CreateItemRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateRequest(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func (h *ItemRequestHandler) GetOwnRequests(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	result, err := h.service.GetOwnRequests(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetOtherRequests handles GET /requests/all?from=0&size=10.
func (h *ItemRequestHandler) GetOtherRequests(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	from, ok := intQuery(c, "from", 0)
	if !ok {
		return
	}
	size, ok := intQuery(c, "size", 10)
	if !ok {
		return
	}

	result, err := h.service.GetOtherRequests(c.Request.Context(), userID, from, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *ItemRequestHandler) GetRequest(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.GetRequest(c.Request.Context(), userID, requestID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
