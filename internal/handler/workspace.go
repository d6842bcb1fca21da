package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"matetrip-backend/internal/auth"
	"matetrip-backend/internal/model"
)

// WorkspaceHandler 워크스페이스 핸들러
type WorkspaceHandler struct {
	db *gorm.DB
}

// NewWorkspaceHandler WorkspaceHandler 생성
func NewWorkspaceHandler(db *gorm.DB) *WorkspaceHandler {
	return &WorkspaceHandler{db: db}
}

// CreateWorkspaceRequest 워크스페이스 생성 요청
type CreateWorkspaceRequest struct {
	Name      string  `json:"name"`
	Region    string  `json:"region,omitempty"`
	StartDate string  `json:"start_date"` // YYYY-MM-DD
	EndDate   string  `json:"end_date"`   // YYYY-MM-DD
	MemberIDs []int64 `json:"member_ids,omitempty"`
}

// WorkspaceResponse 워크스페이스 응답
type WorkspaceResponse struct {
	ID        int64                     `json:"id"`
	Name      string                    `json:"name"`
	Region    *string                   `json:"region,omitempty"`
	OwnerID   int64                     `json:"owner_id"`
	StartDate string                    `json:"start_date"`
	EndDate   string                    `json:"end_date"`
	CreatedAt string                    `json:"created_at"`
	Owner     *UserResponse             `json:"owner,omitempty"`
	Members   []WorkspaceMemberResponse `json:"members,omitempty"`
	Days      []PlanDayResponse         `json:"days,omitempty"`
}

// WorkspaceMemberResponse 워크스페이스 멤버 응답
type WorkspaceMemberResponse struct {
	ID       int64         `json:"id"`
	UserID   int64         `json:"user_id"`
	Status   string        `json:"status"`
	JoinedAt string        `json:"joined_at"`
	User     *UserResponse `json:"user,omitempty"`
}

// PlanDayResponse 일차 응답
type PlanDayResponse struct {
	ID       int64  `json:"id"`
	Date     string `json:"date"`
	DayIndex int    `json:"day_index"`
}

// CreateWorkspace 워크스페이스 생성. 여행 기간의 각 날짜에 대해 PlanDay를
// 함께 생성한다.
func (h *WorkspaceHandler) CreateWorkspace(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)

	var req CreateWorkspaceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	// 이름 검증
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "workspace name is required",
		})
	}

	if len(req.Name) < 2 || len(req.Name) > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "workspace name must be between 2 and 100 characters",
		})
	}

	// 기간 검증
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid start_date (expected YYYY-MM-DD)",
		})
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid end_date (expected YYYY-MM-DD)",
		})
	}
	if endDate.Before(startDate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "end_date must not be before start_date",
		})
	}
	// 한 여행당 최대 30일
	if int(endDate.Sub(startDate).Hours()/24) >= 30 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "trip duration must be less than 30 days",
		})
	}

	// 이름 정제
	req.Name = sanitizeString(req.Name)

	// 트랜잭션으로 워크스페이스 + 멤버 + 일차 생성
	var workspace model.Workspace

	err = h.db.Transaction(func(tx *gorm.DB) error {
		workspace = model.Workspace{
			Name:      req.Name,
			OwnerID:   claims.UserID,
			StartDate: startDate,
			EndDate:   endDate,
		}
		if req.Region != "" {
			region := sanitizeString(req.Region)
			workspace.Region = &region
		}
		if err := tx.Create(&workspace).Error; err != nil {
			return err
		}

		// 소유자를 멤버로 추가 (ACTIVE 상태)
		ownerMember := model.WorkspaceMember{
			WorkspaceID: workspace.ID,
			UserID:      claims.UserID,
			Status:      model.MemberStatusActive.String(),
		}
		if err := tx.Create(&ownerMember).Error; err != nil {
			return err
		}

		// 초대할 멤버들 추가 (PENDING 상태)
		for _, memberID := range req.MemberIDs {
			// 본인은 이미 추가됨
			if memberID == claims.UserID {
				continue
			}

			var user model.User
			if err := tx.First(&user, memberID).Error; err != nil {
				continue // 존재하지 않는 사용자는 무시
			}

			member := model.WorkspaceMember{
				WorkspaceID: workspace.ID,
				UserID:      memberID,
				Status:      model.MemberStatusPending.String(),
			}
			if err := tx.Create(&member).Error; err != nil {
				continue
			}
		}

		// 기간의 각 날짜에 대해 일차 생성
		dayIndex := 0
		for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
			day := model.PlanDay{
				WorkspaceID: workspace.ID,
				Date:        d,
				DayIndex:    dayIndex,
			}
			if err := tx.Create(&day).Error; err != nil {
				return err
			}
			dayIndex++
		}

		return nil
	})

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create workspace",
		})
	}

	// 생성된 워크스페이스 조회 (ACTIVE 멤버만 포함)
	h.db.
		Preload("Owner").
		Preload("Members", "status = ?", model.MemberStatusActive.String()).
		Preload("Members.User").
		Preload("PlanDays", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_index ASC")
		}).
		First(&workspace, workspace.ID)

	return c.Status(fiber.StatusCreated).JSON(h.toWorkspaceResponse(&workspace))
}

// GetMyWorkspaces 내 워크스페이스 목록
func (h *WorkspaceHandler) GetMyWorkspaces(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)

	var workspaces []model.Workspace

	// 내가 ACTIVE 멤버로 속한 워크스페이스 조회
	err := h.db.
		Joins("JOIN workspace_members ON workspace_members.workspace_id = workspaces.id").
		Where("workspace_members.user_id = ? AND workspace_members.status = ?", claims.UserID, model.MemberStatusActive.String()).
		Preload("Owner").
		Preload("Members", "status = ?", model.MemberStatusActive.String()).
		Preload("Members.User").
		Order("workspaces.created_at DESC").
		Find(&workspaces).Error

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get workspaces",
		})
	}

	responses := make([]WorkspaceResponse, len(workspaces))
	for i, ws := range workspaces {
		responses[i] = h.toWorkspaceResponse(&ws)
	}

	return c.JSON(fiber.Map{
		"workspaces": responses,
		"total":      len(responses),
	})
}

// GetWorkspace 워크스페이스 상세 조회 (일차 목록 포함)
func (h *WorkspaceHandler) GetWorkspace(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)
	workspaceID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid workspace id",
		})
	}

	var workspace model.Workspace
	err = h.db.
		Preload("Owner").
		Preload("Members", "status = ?", model.MemberStatusActive.String()).
		Preload("Members.User").
		Preload("PlanDays", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_index ASC")
		}).
		First(&workspace, workspaceID).Error

	if err == gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "workspace not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get workspace",
		})
	}

	// 멤버인지 확인
	isMember := false
	for _, member := range workspace.Members {
		if member.UserID == claims.UserID {
			isMember = true
			break
		}
	}

	if !isMember {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "you are not a member of this workspace",
		})
	}

	return c.JSON(h.toWorkspaceResponse(&workspace))
}

// AddMembers 멤버 초대 (PENDING 멤버 생성)
func (h *WorkspaceHandler) AddMembers(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)
	workspaceID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid workspace id",
		})
	}

	var req struct {
		MemberIDs []int64 `json:"member_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	// ACTIVE + PENDING 멤버 모두 로드 (중복 초대 방지용)
	var workspace model.Workspace
	if err := h.db.
		Preload("Members", "status IN ?", []string{
			model.MemberStatusActive.String(),
			model.MemberStatusPending.String(),
		}).
		First(&workspace, workspaceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "workspace not found",
		})
	}

	// 멤버인지 확인
	isMember := false
	for _, member := range workspace.Members {
		if member.UserID == claims.UserID && member.Status == model.MemberStatusActive.String() {
			isMember = true
			break
		}
	}

	if !isMember {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "you are not a member of this workspace",
		})
	}

	// 기존 멤버 ID 맵 (ACTIVE + PENDING 모두)
	existingMembers := make(map[int64]bool)
	for _, member := range workspace.Members {
		existingMembers[member.UserID] = true
	}

	var invitedMemberIDs []int64
	err = h.db.Transaction(func(tx *gorm.DB) error {
		for _, memberID := range req.MemberIDs {
			if existingMembers[memberID] {
				continue
			}

			var user model.User
			if err := tx.First(&user, memberID).Error; err != nil {
				continue
			}

			member := model.WorkspaceMember{
				WorkspaceID: workspace.ID,
				UserID:      memberID,
				Status:      model.MemberStatusPending.String(),
			}
			if err := tx.Create(&member).Error; err != nil {
				continue
			}

			invitedMemberIDs = append(invitedMemberIDs, memberID)
		}
		return nil
	})

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to add members",
		})
	}

	return c.JSON(fiber.Map{
		"message":       "invitations sent successfully",
		"invited_count": len(invitedMemberIDs),
	})
}

// AcceptInvite 초대 수락 (PENDING → ACTIVE)
func (h *WorkspaceHandler) AcceptInvite(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)
	workspaceID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid workspace id",
		})
	}

	var member model.WorkspaceMember
	if err := h.db.Where("workspace_id = ? AND user_id = ?", workspaceID, claims.UserID).First(&member).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "invitation not found",
		})
	}

	if member.Status == model.MemberStatusActive.String() {
		return c.JSON(fiber.Map{
			"message": "already a member",
		})
	}

	if err := h.db.Model(&member).Update("status", model.MemberStatusActive.String()).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to accept invitation",
		})
	}

	return c.JSON(fiber.Map{
		"message": "invitation accepted",
	})
}

// LeaveWorkspace 워크스페이스 나가기
func (h *WorkspaceHandler) LeaveWorkspace(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)
	workspaceID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid workspace id",
		})
	}

	var workspace model.Workspace
	if err := h.db.First(&workspace, workspaceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "workspace not found",
		})
	}

	// 소유자는 나갈 수 없음
	if workspace.OwnerID == claims.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "owner cannot leave workspace. Transfer ownership first or delete the workspace.",
		})
	}

	var member model.WorkspaceMember
	if err := h.db.Where("workspace_id = ? AND user_id = ?", workspaceID, claims.UserID).First(&member).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "you are not a member of this workspace",
		})
	}

	if err := h.db.Delete(&member).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to leave workspace",
		})
	}

	return c.JSON(fiber.Map{
		"message": "successfully left workspace",
	})
}

// UpdateWorkspaceRequest 워크스페이스 수정 요청. 여행 기간 변경은 일차/일정
// 재구성이 필요하므로 여기서는 받지 않는다.
type UpdateWorkspaceRequest struct {
	Name   *string `json:"name,omitempty"`
	Region *string `json:"region,omitempty"`
}

// UpdateWorkspace 워크스페이스 수정 (소유자 전용)
func (h *WorkspaceHandler) UpdateWorkspace(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)
	workspaceID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid workspace id",
		})
	}

	var req UpdateWorkspaceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	var workspace model.Workspace
	if err := h.db.First(&workspace, workspaceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "workspace not found",
		})
	}

	if workspace.OwnerID != claims.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "only the owner can update the workspace",
		})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := sanitizeString(*req.Name)
		if len(name) < 2 || len(name) > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "workspace name must be between 2 and 100 characters",
			})
		}
		updates["name"] = name
	}
	if req.Region != nil {
		region := sanitizeString(*req.Region)
		updates["region"] = region
	}

	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "nothing to update",
		})
	}

	if err := h.db.Model(&workspace).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update workspace",
		})
	}

	h.db.
		Preload("Owner").
		Preload("PlanDays", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_index ASC")
		}).
		First(&workspace, workspace.ID)

	return c.JSON(h.toWorkspaceResponse(&workspace))
}

// DeleteWorkspace 워크스페이스 삭제 (소유자 전용). POI, 일차, 멤버를 함께
// 삭제한다.
func (h *WorkspaceHandler) DeleteWorkspace(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*auth.Claims)
	workspaceID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid workspace id",
		})
	}

	var workspace model.Workspace
	if err := h.db.First(&workspace, workspaceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "workspace not found",
		})
	}

	if workspace.OwnerID != claims.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "only the owner can delete the workspace",
		})
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ?", workspace.ID).Delete(&model.Poi{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", workspace.ID).Delete(&model.PlanDay{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", workspace.ID).Delete(&model.WorkspaceMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&workspace).Error
	})

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete workspace",
		})
	}

	return c.JSON(fiber.Map{
		"message": "workspace deleted",
	})
}

// 헬퍼 함수: 워크스페이스 응답 변환
func (h *WorkspaceHandler) toWorkspaceResponse(ws *model.Workspace) WorkspaceResponse {
	resp := WorkspaceResponse{
		ID:        ws.ID,
		Name:      ws.Name,
		Region:    ws.Region,
		OwnerID:   ws.OwnerID,
		StartDate: ws.StartDate.Format("2006-01-02"),
		EndDate:   ws.EndDate.Format("2006-01-02"),
		CreatedAt: ws.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	// Owner
	if ws.Owner.ID != 0 {
		resp.Owner = &UserResponse{
			ID:         ws.Owner.ID,
			Email:      ws.Owner.Email,
			Nickname:   ws.Owner.Nickname,
			ProfileImg: ws.Owner.ProfileImg,
		}
	}

	// Members
	if len(ws.Members) > 0 {
		resp.Members = make([]WorkspaceMemberResponse, len(ws.Members))
		for i, m := range ws.Members {
			resp.Members[i] = WorkspaceMemberResponse{
				ID:       m.ID,
				UserID:   m.UserID,
				Status:   m.Status,
				JoinedAt: m.JoinedAt.Format("2006-01-02T15:04:05Z07:00"),
			}
			if m.User.ID != 0 {
				resp.Members[i].User = &UserResponse{
					ID:         m.User.ID,
					Email:      m.User.Email,
					Nickname:   m.User.Nickname,
					ProfileImg: m.User.ProfileImg,
				}
			}
		}
	}

	// Days
	if len(ws.PlanDays) > 0 {
		resp.Days = make([]PlanDayResponse, len(ws.PlanDays))
		for i, d := range ws.PlanDays {
			resp.Days[i] = PlanDayResponse{
				ID:       d.ID,
				Date:     d.Date.Format("2006-01-02"),
				DayIndex: d.DayIndex,
			}
		}
	}

	return resp
}
