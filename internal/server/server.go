package server

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"matetrip-backend/internal/auth"
	"matetrip-backend/internal/cache"
	"matetrip-backend/internal/config"
	"matetrip-backend/internal/geocode"
	"matetrip-backend/internal/handler"
	"matetrip-backend/internal/middleware"
	"matetrip-backend/internal/presence"
	"matetrip-backend/internal/route"
	"matetrip-backend/internal/service"
)

// Server Fiber 서버 래퍼
type Server struct {
	app              *fiber.App
	cfg              *config.Config
	db               *gorm.DB
	authHandler      *handler.AuthHandler
	userHandler      *handler.UserHandler
	workspaceHandler *handler.WorkspaceHandler
	placeHandler     *handler.PlaceHandler
	routeHandler     *handler.RouteHandler
	healthHandler    *handler.HealthHandler
	planWSHandler    *handler.PlanWSHandler
	workspaceMW      *middleware.WorkspaceMiddleware
	jwtManager       *auth.JWTManager
	redisCache       *cache.RedisClient
}

// New 새 서버 인스턴스 생성
func New(cfg *config.Config, db *gorm.DB) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "Matetrip Plan Sync Gateway",
		ServerHeader:          "Fiber",
		StrictRouting:         true,
		CaseSensitive:         true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		Prefork:               false, // WebSocket과 호환성 문제로 비활성화
		ReadBufferSize:        16384,
		WriteBufferSize:       16384,
		BodyLimit:             1 * 1024 * 1024, // 1MB
		DisableStartupMessage: false,
	})

	// Auth 초기화
	jwtManager := auth.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)
	googleAuth := auth.NewGoogleAuthenticator(cfg.Auth.GoogleClientID)
	authHandler := handler.NewAuthHandler(db, jwtManager, googleAuth, cfg.Auth.SecureCookie)
	userHandler := handler.NewUserHandler(db)
	workspaceHandler := handler.NewWorkspaceHandler(db)

	memberService := service.NewMemberService(db)
	workspaceMW := middleware.NewWorkspaceMiddleware(memberService)

	// Redis 초기화 (선택적. 없으면 경로 캐시와 presence 없이 동작)
	var redisCache *cache.RedisClient
	var presenceManager *presence.Manager
	if cfg.Redis.Addr != "" {
		var err error
		redisCache, err = cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.LegTTL)
		if err != nil {
			log.Printf("⚠️ Redis initialization failed: %v (route cache disabled)", err)
			redisCache = nil
		} else {
			presenceManager = presence.NewManager(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		}
	}

	// 외부 API 클라이언트
	routeClient := route.NewClient(cfg.Route.BaseURL, cfg.Route.Profile, cfg.Route.Timeout)
	geocodeClient := geocode.NewClient(cfg.Geocode.BaseURL, cfg.Geocode.APIKey, cfg.Geocode.Timeout)

	placeHandler := handler.NewPlaceHandler(geocodeClient)
	routeHandler := handler.NewRouteHandler(db, routeClient, redisCache)

	planService := service.NewPlanService(db)
	planWSHandler := handler.NewPlanWSHandler(planService, presenceManager, cfg.Server.ServerID)

	var healthHandler *handler.HealthHandler
	if redisCache != nil {
		healthHandler = handler.NewHealthHandler(db, redisCache.Client())
	} else {
		healthHandler = handler.NewHealthHandler(db, nil)
	}

	return &Server{
		app:              app,
		cfg:              cfg,
		db:               db,
		authHandler:      authHandler,
		userHandler:      userHandler,
		workspaceHandler: workspaceHandler,
		placeHandler:     placeHandler,
		routeHandler:     routeHandler,
		healthHandler:    healthHandler,
		planWSHandler:    planWSHandler,
		workspaceMW:      workspaceMW,
		jwtManager:       jwtManager,
		redisCache:       redisCache,
	}
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Seoul",
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORS.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	// 헬스체크 엔드포인트
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)
	s.app.Get("/health/ready", s.healthHandler.Readiness)

	// Rate Limiter 설정 (인증 엔드포인트용 - Brute Force 방지)
	authLimiter := limiter.New(limiter.Config{
		Max:        10,              // 최대 10회
		Expiration: 1 * time.Minute, // 1분당
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() // IP 기반 제한
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})

	// Auth 라우트 그룹
	authGroup := s.app.Group("/auth")
	authGroup.Post("/google", authLimiter, s.authHandler.GoogleLogin)
	authGroup.Post("/refresh", authLimiter, s.authHandler.RefreshToken)
	authGroup.Post("/logout", auth.AuthMiddleware(s.jwtManager), s.authHandler.Logout)
	authGroup.Get("/me", auth.AuthMiddleware(s.jwtManager), s.authHandler.GetMe)

	// User 라우트 그룹 (인증 필요)
	userGroup := s.app.Group("/api/users", auth.AuthMiddleware(s.jwtManager))
	userGroup.Get("/search", s.userHandler.SearchUsers)

	// Place 검색 (인증 필요)
	s.app.Get("/api/places/search", auth.AuthMiddleware(s.jwtManager), s.placeHandler.SearchPlaces)

	// Workspace 라우트 그룹 (인증 필요)
	workspaceGroup := s.app.Group("/api/workspaces", auth.AuthMiddleware(s.jwtManager))
	workspaceGroup.Post("/", s.workspaceHandler.CreateWorkspace)
	workspaceGroup.Get("/", s.workspaceHandler.GetMyWorkspaces)
	workspaceGroup.Get("/:id", s.workspaceHandler.GetWorkspace)
	workspaceGroup.Patch("/:id", s.workspaceHandler.UpdateWorkspace)
	workspaceGroup.Delete("/:id", s.workspaceHandler.DeleteWorkspace)
	workspaceGroup.Post("/:id/members", s.workspaceHandler.AddMembers)
	workspaceGroup.Post("/:id/accept", s.workspaceHandler.AcceptInvite)
	workspaceGroup.Delete("/:id/leave", s.workspaceHandler.LeaveWorkspace)

	// 일차 경로 조회 (멤버 전용)
	workspaceGroup.Get("/:id/days/:dayId/route", s.workspaceMW.RequireMembership(), s.routeHandler.GetDayRoute)

	// 현재 편집자 목록 (멤버 전용)
	workspaceGroup.Get("/:id/editors", s.workspaceMW.RequireMembership(), s.planWSHandler.GetEditors)

	// WebSocket 업그레이드 체크 미들웨어
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket 일정 동기화 엔드포인트
	s.app.Get("/ws/plan/:workspaceId", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		// 쿠키에서 JWT 토큰 추출
		accessToken := c.Cookies("access_token")
		if accessToken == "" {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		claims, err := s.jwtManager.ValidateAccessToken(accessToken)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		workspaceID, err := c.ParamsInt("workspaceId")
		if err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}

		// 멤버 확인 (ACTIVE 상태만)
		var count int64
		s.db.Table("workspace_members").
			Where("workspace_id = ? AND user_id = ? AND status = ?", workspaceID, claims.UserID, "ACTIVE").
			Count(&count)
		if count == 0 {
			return c.SendStatus(fiber.StatusForbidden)
		}

		// 유저 정보 조회
		var user struct {
			Nickname string
		}
		s.db.Table("users").Select("nickname").Where("id = ?", claims.UserID).Scan(&user)

		c.Locals("workspaceId", int64(workspaceID))
		c.Locals("userId", claims.UserID)
		c.Locals("nickname", user.Nickname)

		return c.Next()
	}, websocket.New(s.planWSHandler.HandleWebSocket, websocket.Config{
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
	}))
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	// Graceful Shutdown 설정
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Fatalf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Matetrip Plan Sync Gateway starting on %s", s.cfg.Server.Port)
	log.Printf("📡 WebSocket endpoint: ws://localhost%s/ws/plan/:workspaceId", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료
func (s *Server) Shutdown() error {
	if s.redisCache != nil {
		s.redisCache.Close()
	}
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
