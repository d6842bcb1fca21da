package handler

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"matetrip-backend/internal/cache"
	"matetrip-backend/internal/model"
	"matetrip-backend/internal/route"
)

// RouteHandler 일차 경로 핸들러
type RouteHandler struct {
	db          *gorm.DB
	routeClient *route.Client
	cache       *cache.RedisClient
}

// NewRouteHandler RouteHandler 생성
func NewRouteHandler(db *gorm.DB, routeClient *route.Client, redisCache *cache.RedisClient) *RouteHandler {
	return &RouteHandler{db: db, routeClient: routeClient, cache: redisCache}
}

// RouteSegmentResponse 구간 응답
type RouteSegmentResponse struct {
	FromPoiID string  `json:"from_poi_id"`
	ToPoiID   string  `json:"to_poi_id"`
	Duration  float64 `json:"duration"` // 초
	Distance  float64 `json:"distance"` // 미터
}

// DayRouteResponse 일차 경로 응답. 계산에 실패한 구간은 목록에서 빠진다.
type DayRouteResponse struct {
	PlanDayID int64                  `json:"plan_day_id"`
	Segments  []RouteSegmentResponse `json:"segments"`
}

// GetDayRoute 일차의 연속 POI 구간별 이동 시간/거리 조회
func (h *RouteHandler) GetDayRoute(c *fiber.Ctx) error {
	workspaceID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid workspace id",
		})
	}
	planDayID, err := c.ParamsInt("dayId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid plan day id",
		})
	}

	// 일차가 이 워크스페이스 소속인지 확인
	var day model.PlanDay
	if err := h.db.Where("id = ? AND workspace_id = ?", planDayID, workspaceID).First(&day).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "plan day not found",
		})
	}

	var pois []model.Poi
	if err := h.db.
		Where("workspace_id = ? AND plan_day_id = ?", workspaceID, planDayID).
		Order("sequence ASC").
		Find(&pois).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load pois",
		})
	}

	resp := DayRouteResponse{
		PlanDayID: int64(planDayID),
		Segments:  make([]RouteSegmentResponse, 0),
	}

	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	for i := 0; i+1 < len(pois); i++ {
		from, to := pois[i], pois[i+1]

		leg, err := h.lookupLeg(ctx, from, to)
		if err != nil {
			// 구간 하나 실패가 전체 응답을 막지 않는다
			log.Printf("[Route] 구간 계산 실패: %s -> %s, err=%v", from.ID, to.ID, err)
			continue
		}

		resp.Segments = append(resp.Segments, RouteSegmentResponse{
			FromPoiID: from.ID,
			ToPoiID:   to.ID,
			Duration:  leg.Duration,
			Distance:  leg.Distance,
		})
	}

	return c.JSON(resp)
}

// lookupLeg 캐시 우선 조회, 미스면 라우팅 서버 호출 후 캐시에 채운다.
func (h *RouteHandler) lookupLeg(ctx context.Context, from, to model.Poi) (*cache.RouteLeg, error) {
	if h.cache != nil {
		cached, err := h.cache.GetLeg(ctx, from.Latitude, from.Longitude, to.Latitude, to.Longitude)
		if err != nil {
			log.Printf("[Route] 캐시 조회 실패: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	duration, distance, err := h.routeClient.Route(ctx, from.Latitude, from.Longitude, to.Latitude, to.Longitude)
	if err != nil {
		return nil, err
	}

	leg := &cache.RouteLeg{
		FromLat:  from.Latitude,
		FromLng:  from.Longitude,
		ToLat:    to.Latitude,
		ToLng:    to.Longitude,
		Duration: duration,
		Distance: distance,
	}

	if h.cache != nil {
		if err := h.cache.SetLeg(ctx, leg); err != nil {
			log.Printf("[Route] 캐시 저장 실패: %v", err)
		}
	}

	return leg, nil
}
