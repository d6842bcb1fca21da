package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"matetrip-backend/internal/geocode"
)

// PlaceHandler 장소 검색 핸들러
type PlaceHandler struct {
	geocodeClient *geocode.Client
}

// NewPlaceHandler PlaceHandler 생성
func NewPlaceHandler(geocodeClient *geocode.Client) *PlaceHandler {
	return &PlaceHandler{geocodeClient: geocodeClient}
}

// SearchPlacesResponse 장소 검색 응답
type SearchPlacesResponse struct {
	Places []geocode.Place `json:"places"`
	Total  int             `json:"total"`
}

// SearchPlaces 키워드 장소 검색
func (h *PlaceHandler) SearchPlaces(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "search query is required",
		})
	}

	if len(query) < 2 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "search query must be at least 2 characters",
		})
	}

	query = sanitizeString(query)

	size := 15
	if s := c.Query("size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			size = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	places, err := h.geocodeClient.Search(ctx, query, size)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "place search failed",
		})
	}

	return c.JSON(SearchPlacesResponse{
		Places: places,
		Total:  len(places),
	})
}
