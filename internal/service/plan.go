package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"matetrip-backend/internal/model"
	"matetrip-backend/internal/protocol"
)

var (
	ErrPoiNotFound     = errors.New("poi not found")
	ErrPlanDayNotFound = errors.New("plan day not found in workspace")
)

// PlanService 워크스페이스 POI에 대한 서버 측 정본(canonical) 상태 관리.
// 모든 변경은 트랜잭션으로 적용되고, 변경 후 해당 파티션의 sequence는 항상
// 0..n-1로 연속된다.
type PlanService struct {
	db *gorm.DB
}

// NewPlanService PlanService 생성
func NewPlanService(db *gorm.DB) *PlanService {
	return &PlanService{db: db}
}

// ListPois 워크스페이스의 전체 POI 조회 (sync 브로드캐스트용)
func (s *PlanService) ListPois(workspaceID int64) ([]protocol.Poi, error) {
	var pois []model.Poi
	err := s.db.
		Where("workspace_id = ?", workspaceID).
		Order("plan_day_id ASC NULLS FIRST, sequence ASC").
		Find(&pois).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pois: %w", err)
	}

	wire := make([]protocol.Poi, len(pois))
	for i, p := range pois {
		wire[i] = toWirePoi(p)
	}
	return wire, nil
}

// MarkPoi 새 POI 생성: 보관함(풀) 끝에 추가된다.
func (s *PlanService) MarkPoi(req *protocol.MarkPayload) (protocol.Poi, error) {
	poi := model.Poi{
		ID:          uuid.New().String(),
		WorkspaceID: req.WorkspaceID,
		CreatedBy:   req.CreatedBy,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Status:      model.PoiStatusMarked.String(),
	}
	if req.Address != "" {
		poi.Address = &req.Address
	}
	if req.PlaceName != "" {
		poi.PlaceName = &req.PlaceName
	}
	if req.CategoryName != "" {
		poi.CategoryName = &req.CategoryName
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var poolCount int64
		if err := tx.Model(&model.Poi{}).
			Where("workspace_id = ? AND plan_day_id IS NULL", req.WorkspaceID).
			Count(&poolCount).Error; err != nil {
			return err
		}
		poi.Sequence = int(poolCount)
		return tx.Create(&poi).Error
	})
	if err != nil {
		return protocol.Poi{}, fmt.Errorf("failed to mark poi: %w", err)
	}
	return toWirePoi(poi), nil
}

// UnmarkPoi POI 삭제. 떠난 파티션은 다시 연속 번호로 정리된다.
func (s *PlanService) UnmarkPoi(workspaceID int64, poiID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var poi model.Poi
		if err := tx.Where("id = ? AND workspace_id = ?", poiID, workspaceID).First(&poi).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPoiNotFound
			}
			return err
		}
		if err := tx.Delete(&poi).Error; err != nil {
			return err
		}
		return resequencePartition(tx, workspaceID, poi.PlanDayID)
	})
}

// AddToSchedule POI를 일차에 배정. 대상 일차 끝에 추가되고, 떠난 파티션은
// 다시 연속 번호로 정리된다.
func (s *PlanService) AddToSchedule(workspaceID int64, poiID string, planDayID int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var day model.PlanDay
		if err := tx.Where("id = ? AND workspace_id = ?", planDayID, workspaceID).First(&day).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlanDayNotFound
			}
			return err
		}

		var poi model.Poi
		if err := tx.Where("id = ? AND workspace_id = ?", poiID, workspaceID).First(&poi).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPoiNotFound
			}
			return err
		}
		if poi.PlanDayID != nil && *poi.PlanDayID == planDayID {
			return nil // 같은 일차로의 중복 배정은 멱등
		}

		prevDayID := poi.PlanDayID

		var dayCount int64
		if err := tx.Model(&model.Poi{}).
			Where("workspace_id = ? AND plan_day_id = ?", workspaceID, planDayID).
			Count(&dayCount).Error; err != nil {
			return err
		}

		if err := tx.Model(&poi).Updates(map[string]interface{}{
			"status":      model.PoiStatusScheduled.String(),
			"plan_day_id": planDayID,
			"sequence":    int(dayCount),
		}).Error; err != nil {
			return err
		}

		return resequencePartition(tx, workspaceID, prevDayID)
	})
}

// RemoveFromSchedule POI를 일차에서 보관함(풀)으로 되돌린다. planDayID가 현재
// 배정과 다르면 낡은 intent로 보고 무시한다.
func (s *PlanService) RemoveFromSchedule(workspaceID int64, poiID string, planDayID int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var poi model.Poi
		if err := tx.Where("id = ? AND workspace_id = ?", poiID, workspaceID).First(&poi).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPoiNotFound
			}
			return err
		}
		if poi.PlanDayID == nil || *poi.PlanDayID != planDayID {
			return nil // stale intent
		}

		var poolCount int64
		if err := tx.Model(&model.Poi{}).
			Where("workspace_id = ? AND plan_day_id IS NULL", workspaceID).
			Count(&poolCount).Error; err != nil {
			return err
		}

		if err := tx.Model(&poi).Updates(map[string]interface{}{
			"status":      model.PoiStatusMarked.String(),
			"plan_day_id": gorm.Expr("NULL"),
			"sequence":    int(poolCount),
		}).Error; err != nil {
			return err
		}

		return resequencePartition(tx, workspaceID, &planDayID)
	})
}

// Reorder 일차 내 순서 재배치. orderedIDs에 없는 멤버는 건드리지 않고, 모르는
// id는 무시한다. 끝으로 파티션 전체를 다시 연속 번호로 정리해 밀도를 보장한다.
func (s *PlanService) Reorder(workspaceID, planDayID int64, orderedIDs []string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			// 파티션 밖이거나 존재하지 않는 id는 0 rows affected로 끝난다.
			if err := tx.Model(&model.Poi{}).
				Where("id = ? AND workspace_id = ? AND plan_day_id = ?", id, workspaceID, planDayID).
				Update("sequence", i).Error; err != nil {
				return err
			}
		}
		return resequencePartition(tx, workspaceID, &planDayID)
	})
}

// CanonicalOrder 일차의 정본 순서 (reordered 브로드캐스트 페이로드용)
func (s *PlanService) CanonicalOrder(workspaceID, planDayID int64) ([]string, error) {
	var ids []string
	err := s.db.Model(&model.Poi{}).
		Where("workspace_id = ? AND plan_day_id = ?", workspaceID, planDayID).
		Order("sequence ASC, id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load canonical order: %w", err)
	}
	return ids, nil
}

// ResequenceWorkspace 워크스페이스 전체 파티션의 sequence 밀도 복구
// (cmd/check_db 정비 도구용).
func (s *PlanService) ResequenceWorkspace(workspaceID int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := resequencePartition(tx, workspaceID, nil); err != nil {
			return err
		}
		var dayIDs []int64
		if err := tx.Model(&model.PlanDay{}).
			Where("workspace_id = ?", workspaceID).
			Pluck("id", &dayIDs).Error; err != nil {
			return err
		}
		for _, dayID := range dayIDs {
			d := dayID
			if err := resequencePartition(tx, workspaceID, &d); err != nil {
				return err
			}
		}
		return nil
	})
}

// resequencePartition 파티션 멤버를 현재 순서대로 0..n-1로 다시 매긴다.
func resequencePartition(tx *gorm.DB, workspaceID int64, planDayID *int64) error {
	q := tx.Model(&model.Poi{}).Where("workspace_id = ?", workspaceID)
	if planDayID == nil {
		q = q.Where("plan_day_id IS NULL")
	} else {
		q = q.Where("plan_day_id = ?", *planDayID)
	}

	var ids []string
	if err := q.Order("sequence ASC, id ASC").Pluck("id", &ids).Error; err != nil {
		return err
	}
	for i, id := range ids {
		if err := tx.Model(&model.Poi{}).
			Where("id = ?", id).
			Update("sequence", i).Error; err != nil {
			return err
		}
	}
	return nil
}

// toWirePoi DB 레코드를 와이어 표현으로 변환
func toWirePoi(p model.Poi) protocol.Poi {
	wire := protocol.Poi{
		ID:          p.ID,
		WorkspaceID: p.WorkspaceID,
		CreatedBy:   p.CreatedBy,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Status:      protocol.PoiStatus(p.Status),
		PlanDayID:   p.PlanDayID,
		Sequence:    p.Sequence,
		IsPersisted: true,
	}
	if p.PlaceName != nil {
		wire.PlaceName = *p.PlaceName
	}
	if p.Address != nil {
		wire.Address = *p.Address
	}
	if p.CategoryName != nil {
		wire.CategoryName = *p.CategoryName
	}
	return wire
}
