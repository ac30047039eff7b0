package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mohamedthameursassi/IndoorNavServer/models"
	"github.com/mohamedthameursassi/IndoorNavServer/services"
	"github.com/mohamedthameursassi/IndoorNavServer/store"
)

// APIHandler serves the mini program's JSON API.
type APIHandler struct {
	navigation *services.NavigationService
	congestion *services.CongestionService
	users      *services.UserService
}

func NewAPIHandler(nav *services.NavigationService, cong *services.CongestionService, users *services.UserService) *APIHandler {
	return &APIHandler{navigation: nav, congestion: cong, users: users}
}

// NewAPIRouter returns a gin engine with permissive CORS and every API route.
func NewAPIRouter(h *APIHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"*"}
	r.Use(cors.New(config))

	h.RegisterRoutes(r)
	return r
}

func (h *APIHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := r.Group("/api")
	api.POST("/navigation", h.Navigate)
	api.POST("/congestion", h.UpdateCongestion)

	users := api.Group("/users/:userID")
	users.GET("/settings", h.GetSettings)
	users.PUT("/settings", h.UpdateSettings)
	users.GET("/favorites", h.ListFavorites)
	users.POST("/favorites", h.AddFavorite)
	users.GET("/history", h.ListHistory)
}

func (h *APIHandler) Navigate(c *gin.Context) {
	var req models.NavigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.navigation.Navigate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *APIHandler) UpdateCongestion(c *gin.Context) {
	var req models.CongestionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.congestion.Update(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *APIHandler) GetSettings(c *gin.Context) {
	settings, err := h.users.Settings(c.Request.Context(), c.Param("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *APIHandler) UpdateSettings(c *gin.Context) {
	var settings models.UserSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.users.UpdateSettings(c.Request.Context(), c.Param("userID"), settings); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *APIHandler) AddFavorite(c *gin.Context) {
	var req models.FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	fav, err := h.users.AddFavorite(c.Request.Context(), c.Param("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.FavoriteResponse{Success: true, FavoriteID: fav.FavoriteID})
}

func (h *APIHandler) ListFavorites(c *gin.Context) {
	favs, err := h.users.Favorites(c.Request.Context(), c.Param("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	if favs == nil {
		favs = []models.FavoriteDestination{}
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favs})
}

func (h *APIHandler) ListHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		limit = n
	}
	history, err := h.users.History(c.Request.Context(), c.Param("userID"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if history == nil {
		history = []models.NavigationHistory{}
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func badRequest(c *gin.Context, err error) {
	log.Printf("ERROR: Failed to parse request: %v", err)
	c.JSON(http.StatusBadRequest, models.ApiError{
		Code:    "invalid_request",
		Message: err.Error(),
	})
}

// respondError maps service errors onto status codes: caller mistakes are
// 400, a missing route or record is 404, anything else is 500.
func respondError(c *gin.Context, err error) {
	var (
		locErr *services.LocationError
		cmdErr *services.CommandError
	)
	switch {
	case errors.As(err, &cmdErr):
		c.JSON(http.StatusBadRequest, models.ApiError{
			Code:    "unparsable_command",
			Message: "无法理解语音指令",
			Details: gin.H{"parsed_command": cmdErr.Command},
		})
	case errors.As(err, &locErr):
		c.JSON(http.StatusBadRequest, models.ApiError{
			Code:    "location_not_found",
			Message: "无法找到起点或终点位置",
			Details: gin.H{"start_found": locErr.StartFound, "end_found": locErr.EndFound},
		})
	case errors.Is(err, models.ErrMissingField), errors.Is(err, models.ErrInvalidField):
		c.JSON(http.StatusBadRequest, models.ApiError{Code: "invalid_request", Message: err.Error()})
	case errors.Is(err, services.ErrNoRoute):
		c.JSON(http.StatusNotFound, models.ApiError{Code: "no_route", Message: "无法找到从起点到终点的路径"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ApiError{Code: "not_found", Message: err.Error()})
	default:
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, models.ApiError{Code: "internal_error", Message: err.Error()})
	}
}
