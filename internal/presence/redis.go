package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// EditorData Redis에 저장될 편집자 상태 데이터
type EditorData struct {
	UserID        int64  `json:"user_id"`
	Nickname      string `json:"nickname"`
	WorkspaceID   int64  `json:"workspace_id"`
	LastHeartbeat int64  `json:"last_heartbeat"`
	ServerID      string `json:"server_id"` // 멀티 서버 확장 대비
}

// Manager 워크스페이스 편집자 presence 관리자
type Manager struct {
	client *redis.Client
	ctx    context.Context
}

// NewManager 생성자
func NewManager(addr string, password string, db int) *Manager {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &Manager{
		client: rdb,
		ctx:    context.Background(),
	}
}

// Key 생성 유틸
func (m *Manager) getEditorKey(workspaceID, userID int64) string {
	return fmt.Sprintf("presence:workspace:%d:editor:%d", workspaceID, userID)
}

func (m *Manager) getWorkspacePattern(workspaceID int64) string {
	return fmt.Sprintf("presence:workspace:%d:editor:*", workspaceID)
}

// SetEditor 편집 세션 등록 (WebSocket 연결 시)
func (m *Manager) SetEditor(workspaceID, userID int64, nickname, serverID string) error {
	data := EditorData{
		UserID:        userID,
		Nickname:      nickname,
		WorkspaceID:   workspaceID,
		LastHeartbeat: time.Now().Unix(),
		ServerID:      serverID,
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	// 60초 TTL (Heartbeat는 30초마다)
	return m.client.Set(m.ctx, m.getEditorKey(workspaceID, userID), jsonData, 60*time.Second).Err()
}

// UpdateHeartbeat 생존 신고 (TTL 연장)
func (m *Manager) UpdateHeartbeat(workspaceID, userID int64) error {
	result, err := m.client.Expire(m.ctx, m.getEditorKey(workspaceID, userID), 60*time.Second).Result()
	if err != nil {
		return err
	}
	if !result {
		return fmt.Errorf("editor %d not found in workspace %d", userID, workspaceID)
	}
	return nil
}

// RemoveEditor 편집 세션 삭제 (Disconnect)
func (m *Manager) RemoveEditor(workspaceID, userID int64) error {
	return m.client.Del(m.ctx, m.getEditorKey(workspaceID, userID)).Err()
}

// GetEditors 워크스페이스의 현재 편집자 목록 조회
func (m *Manager) GetEditors(workspaceID int64) ([]EditorData, error) {
	var editors []EditorData
	var cursor uint64

	for {
		keys, next, err := m.client.Scan(m.ctx, cursor, m.getWorkspacePattern(workspaceID), 100).Result()
		if err != nil {
			return nil, err
		}

		if len(keys) > 0 {
			results, err := m.client.MGet(m.ctx, keys...).Result()
			if err != nil {
				return nil, err
			}
			for _, result := range results {
				if result == nil {
					continue // TTL 만료
				}
				strVal, ok := result.(string)
				if !ok {
					continue
				}
				var data EditorData
				if err := json.Unmarshal([]byte(strVal), &data); err == nil {
					editors = append(editors, data)
				}
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return editors, nil
}
