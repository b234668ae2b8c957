package handlers

import (
	"net/http"
	"strings"

	"luontovahdit/internal/models"
	"luontovahdit/internal/services"
	"luontovahdit/internal/utils"

	"github.com/gin-gonic/gin"
)

type HotspotHandler struct {
	hotspots *services.HotspotService
}

func NewHotspotHandler(hotspots *services.HotspotService) *HotspotHandler {
	return &HotspotHandler{hotspots: hotspots}
}

type locationRequest struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type createHotspotRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Location    locationRequest `json:"location"`
}

// editHotspotRequest 只接受可编辑字段，其余字段被忽略
type editHotspotRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// List GET /api/hotspots?sort=new|hot
func (h *HotspotHandler) List(c *gin.Context) {
	var order models.HotspotOrder
	switch c.Query("sort") {
	case "new":
		order = models.OrderNewest
	case "hot":
		order = models.OrderHot
	}

	hotspots, err := h.hotspots.List(c.Request.Context(), order)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hotspots)
}

// Get GET /api/hotspots/:id, or the nearby search when id is "@lon,lat[,radiusKm]".
func (h *HotspotHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if strings.HasPrefix(id, "@") {
		h.nearby(c, strings.TrimPrefix(id, "@"))
		return
	}

	detail, err := h.hotspots.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *HotspotHandler) nearby(c *gin.Context, query string) {
	lon, lat, radiusKm, err := parseNearbyQuery(query)
	if err != nil {
		respondError(c, err)
		return
	}

	hotspots, err := h.hotspots.FindNearby(c.Request.Context(), lon, lat, radiusKm)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hotspots)
}

// parseNearbyQuery parses "lon,lat[,radiusKm]". An unreadable radius counts as absent.
func parseNearbyQuery(query string) (lon, lat, radiusKm float64, err error) {
	parts := strings.Split(query, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, services.ErrInvalidCoordinates
	}

	var ok bool
	if lon, ok = utils.StringToFloat(parts[0]); !ok {
		return 0, 0, 0, services.ErrInvalidCoordinates
	}
	if lat, ok = utils.StringToFloat(parts[1]); !ok {
		return 0, 0, 0, services.ErrInvalidCoordinates
	}
	if len(parts) == 3 {
		radiusKm, _ = utils.StringToFloat(parts[2])
	}
	return lon, lat, radiusKm, nil
}

// Create POST /api/hotspots
func (h *HotspotHandler) Create(c *gin.Context) {
	var req createHotspotRequest
	if !bindJSON(c, &req) {
		return
	}

	hotspot, err := h.hotspots.Create(c.Request.Context(), currentUser(c).ID, services.CreateHotspotInput{
		Title:        req.Title,
		Description:  req.Description,
		LocationType: req.Location.Type,
		Coordinates:  req.Location.Coordinates,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hotspot)
}

// Edit POST /api/hotspots/:id/edit and PATCH /api/hotspots/:id
func (h *HotspotHandler) Edit(c *gin.Context) {
	var req editHotspotRequest
	if !bindJSON(c, &req) {
		return
	}

	hotspot, err := h.hotspots.Edit(c.Request.Context(), c.Param("id"), currentUser(c).ID, services.EditHotspotInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hotspot)
}

// Delete DELETE /api/hotspots/:id
func (h *HotspotHandler) Delete(c *gin.Context) {
	if err := h.hotspots.Delete(c.Request.Context(), c.Param("id"), currentUser(c).ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Vote POST /api/hotspots/:id/vote
func (h *HotspotHandler) Vote(c *gin.Context) {
	dir, ok := bindVote(c)
	if !ok {
		return
	}

	hotspot, err := h.hotspots.Vote(c.Request.Context(), c.Param("id"), currentUser(c).ID, dir)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hotspot)
}

// Flag POST /api/hotspots/:id/flag
func (h *HotspotHandler) Flag(c *gin.Context) {
	hotspot, err := h.hotspots.Flag(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hotspot)
}
