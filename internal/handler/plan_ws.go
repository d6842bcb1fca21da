package handler

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"matetrip-backend/internal/presence"
	"matetrip-backend/internal/protocol"
	"matetrip-backend/internal/service"
)

// presence TTL(60s)보다 짧게 유지
const presenceHeartbeatInterval = 30 * time.Second

// PlanWSHandler 일정 동기화 WebSocket 핸들러. 워크스페이스별 방을 유지하고
// 모든 변경을 DB에 먼저 반영한 뒤 방 전체(보낸 사람 포함)에 브로드캐스트한다.
type PlanWSHandler struct {
	planService *service.PlanService
	presence    *presence.Manager
	serverID    string
	rooms       map[int64]*PlanRoom // workspaceID -> PlanRoom
	mu          sync.RWMutex
}

// PlanRoom 워크스페이스 편집 방
type PlanRoom struct {
	clients map[*websocket.Conn]*PlanClient
	mu      sync.RWMutex
}

// PlanClient 편집 클라이언트
type PlanClient struct {
	UserID   int64
	Nickname string
	Conn     *websocket.Conn
	writeMu  sync.Mutex
}

// write 직렬화된 단일 writer 보장 (전송 루프와 브로드캐스트가 겹칠 수 있음)
func (c *PlanClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

// NewPlanWSHandler PlanWSHandler 생성
func NewPlanWSHandler(planService *service.PlanService, presenceManager *presence.Manager, serverID string) *PlanWSHandler {
	return &PlanWSHandler{
		planService: planService,
		presence:    presenceManager,
		serverID:    serverID,
		rooms:       make(map[int64]*PlanRoom),
	}
}

// getOrCreateRoom 방 조회 또는 생성
func (h *PlanWSHandler) getOrCreateRoom(workspaceID int64) *PlanRoom {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[workspaceID]; ok {
		return room
	}

	room := &PlanRoom{
		clients: make(map[*websocket.Conn]*PlanClient),
	}
	h.rooms[workspaceID] = room
	return room
}

// HandleWebSocket WebSocket 연결 처리
func (h *PlanWSHandler) HandleWebSocket(c *websocket.Conn) {
	workspaceIDInterface := c.Locals("workspaceId")
	userIDInterface := c.Locals("userId")
	nicknameInterface := c.Locals("nickname")

	workspaceID, ok1 := workspaceIDInterface.(int64)
	userID, ok2 := userIDInterface.(int64)
	nickname, ok3 := nicknameInterface.(string)

	if !ok1 || !ok2 || !ok3 {
		c.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","message":"invalid session"}`))
		c.Close()
		return
	}

	room := h.getOrCreateRoom(workspaceID)

	client := &PlanClient{
		UserID:   userID,
		Nickname: nickname,
		Conn:     c,
	}

	room.mu.Lock()
	room.clients[c] = client
	room.mu.Unlock()

	if h.presence != nil {
		if err := h.presence.SetEditor(workspaceID, userID, nickname, h.serverID); err != nil {
			log.Printf("[PlanWS] presence 등록 실패: %v", err)
		}
	}

	log.Printf("[PlanWS] 편집 클라이언트 연결: workspace=%d, user=%d", workspaceID, userID)

	defer func() {
		room.mu.Lock()
		delete(room.clients, c)
		room.mu.Unlock()
		if h.presence != nil {
			h.presence.RemoveEditor(workspaceID, userID)
		}
		c.Close()
		log.Printf("[PlanWS] 편집 클라이언트 연결 해제: workspace=%d, user=%d", workspaceID, userID)
	}()

	// 접속 직후 전체 스냅샷 전송. 클라이언트는 이 sync로 로컬 상태를 교체한다.
	if err := h.sendSync(client, workspaceID); err != nil {
		log.Printf("[PlanWS] sync 전송 실패: workspace=%d, user=%d, err=%v", workspaceID, userID, err)
		return
	}

	// presence TTL 연장용 heartbeat
	if h.presence != nil {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			ticker := time.NewTicker(presenceHeartbeatInterval)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					if err := h.presence.UpdateHeartbeat(workspaceID, userID); err != nil {
						log.Printf("[PlanWS] heartbeat 실패: workspace=%d, user=%d, err=%v", workspaceID, userID, err)
					}
				}
			}
		}()
	}

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			break
		}

		var env protocol.Envelope
		if err := json.Unmarshal(msgBytes, &env); err != nil {
			continue
		}

		if env.Type == protocol.IntentLeave {
			break
		}

		h.handleIntent(room, client, workspaceID, env)
	}
}

// handleIntent intent를 정본 상태에 반영하고 결과 이벤트를 브로드캐스트
func (h *PlanWSHandler) handleIntent(room *PlanRoom, client *PlanClient, workspaceID int64, env protocol.Envelope) {
	payload, err := protocol.DecodeIntent(env)
	if err != nil {
		log.Printf("[PlanWS] intent 파싱 실패: workspace=%d, type=%s, err=%v", workspaceID, env.Type, err)
		return
	}

	switch p := payload.(type) {
	case *protocol.MarkPayload:
		p.WorkspaceID = workspaceID
		p.CreatedBy = client.UserID
		poi, err := h.planService.MarkPoi(p)
		if err != nil {
			log.Printf("[PlanWS] mark 실패: workspace=%d, err=%v", workspaceID, err)
			return
		}
		h.broadcast(room, protocol.EventPoiMarked, protocol.PoiMarkedPayload{Poi: poi})

	case *protocol.UnmarkPayload:
		if err := h.planService.UnmarkPoi(workspaceID, p.PoiID); err != nil {
			log.Printf("[PlanWS] unmark 실패: workspace=%d, poi=%s, err=%v", workspaceID, p.PoiID, err)
			return
		}
		h.broadcast(room, protocol.EventPoiUnmarked, protocol.PoiUnmarkedPayload{PoiID: p.PoiID})

	case *protocol.SchedulePayload:
		if env.Type == protocol.IntentAddToSchedule {
			if err := h.planService.AddToSchedule(workspaceID, p.PoiID, p.PlanDayID); err != nil {
				log.Printf("[PlanWS] addToSchedule 실패: workspace=%d, poi=%s, err=%v", workspaceID, p.PoiID, err)
				return
			}
			h.broadcast(room, protocol.EventScheduleAdded, protocol.ScheduleEventPayload{PoiID: p.PoiID, PlanDayID: p.PlanDayID})
		} else {
			if err := h.planService.RemoveFromSchedule(workspaceID, p.PoiID, p.PlanDayID); err != nil {
				log.Printf("[PlanWS] removeFromSchedule 실패: workspace=%d, poi=%s, err=%v", workspaceID, p.PoiID, err)
				return
			}
			h.broadcast(room, protocol.EventScheduleRemoved, protocol.ScheduleEventPayload{PoiID: p.PoiID, PlanDayID: p.PlanDayID})
		}

	case *protocol.ReorderPayload:
		if err := h.planService.Reorder(workspaceID, p.PlanDayID, p.OrderedPoiIDs); err != nil {
			log.Printf("[PlanWS] reorder 실패: workspace=%d, day=%d, err=%v", workspaceID, p.PlanDayID, err)
			return
		}
		// 정본 순서를 다시 읽어 브로드캐스트 (부분 reorder 요청이어도 결과는 전체 순서)
		ids, err := h.planService.CanonicalOrder(workspaceID, p.PlanDayID)
		if err != nil {
			log.Printf("[PlanWS] 순서 조회 실패: workspace=%d, day=%d, err=%v", workspaceID, p.PlanDayID, err)
			return
		}
		h.broadcast(room, protocol.EventReordered, protocol.ReorderedPayload{PlanDayID: p.PlanDayID, PoiIDs: ids})
	}
}

// GetEditors 워크스페이스에 현재 접속 중인 편집자 목록 조회
func (h *PlanWSHandler) GetEditors(c *fiber.Ctx) error {
	if h.presence == nil {
		return c.JSON(fiber.Map{
			"editors": []presence.EditorData{},
			"total":   0,
		})
	}

	workspaceID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid workspace id",
		})
	}

	editors, err := h.presence.GetEditors(int64(workspaceID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get editors",
		})
	}

	return c.JSON(fiber.Map{
		"editors": editors,
		"total":   len(editors),
	})
}

// sendSync 단일 클라이언트에게 전체 스냅샷 전송
func (h *PlanWSHandler) sendSync(client *PlanClient, workspaceID int64) error {
	pois, err := h.planService.ListPois(workspaceID)
	if err != nil {
		return err
	}

	env, err := protocol.NewEnvelope(protocol.EventSync, protocol.SyncPayload{Pois: pois})
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return client.write(data)
}

// broadcast 보낸 사람을 포함한 방의 모든 클라이언트에게 이벤트 전송
func (h *PlanWSHandler) broadcast(room *PlanRoom, t protocol.MessageType, payload any) {
	env, err := protocol.NewEnvelope(t, payload)
	if err != nil {
		log.Printf("[PlanWS] 이벤트 직렬화 실패: type=%s, err=%v", t, err)
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[PlanWS] 이벤트 직렬화 실패: type=%s, err=%v", t, err)
		return
	}

	room.mu.RLock()
	defer room.mu.RUnlock()

	for _, client := range room.clients {
		if err := client.write(data); err != nil {
			log.Printf("[PlanWS] 이벤트 전송 실패: user=%d, err=%v", client.UserID, err)
		}
	}
}
