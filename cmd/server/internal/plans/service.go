package plans

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teamplanhq/weekplan/cmd/server/internal/models"
)

// fanoutConcurrency 档案变更反规范化重写的并行度
const fanoutConcurrency = 4

// Form 一次保存提交的计划内容，调用方提供完整合并后的记录
type Form struct {
	Mode       models.PlanMode       `json:"mode" binding:"required"`
	DailyPlans []models.DailyPlan    `json:"dailyPlans"`
	Summary    *models.WeeklySummary `json:"summary"`
}

// Owner 计划归属用户的档案快照
type Owner struct {
	UserID     string
	Name       string
	Department string
}

// Service 在 Store 之上实现保存语义: 幂等 upsert、变更日志追加、档案快照
type Service struct {
	store  *Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService 创建计划服务
func NewService(store *Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

// Store 暴露底层存储（查询与订阅直接走 Store）
func (s *Service) Store() *Store {
	return s.store
}

func strPtr(v string) *string {
	return &v
}

// Upsert 以 (owner, week) 为键保存计划
// 首次保存创建文档，后续保存覆盖内容并追加变更日志，永不删除
func (s *Service) Upsert(owner Owner, weekID string, form Form) (*models.WeeklyPlan, error) {
	if form.Mode != models.ModeDaily && form.Mode != models.ModeSummary {
		return nil, fmt.Errorf("invalid plan mode: %s", form.Mode)
	}

	now := s.now()
	existing, exists := s.store.Get(owner.UserID, weekID)

	plan := &models.WeeklyPlan{
		ID:             models.PlanID(owner.UserID, weekID),
		WeekIdentifier: weekID,
		UserID:         owner.UserID,
		UserName:       owner.Name,
		UserDepartment: owner.Department,
		Mode:           form.Mode,
		DailyPlans:     form.DailyPlans,
		Summary:        form.Summary,
		UpdatedAt:      now,
	}

	if exists {
		plan.CreatedAt = existing.CreatedAt
		plan.UpdateLogs = existing.UpdateLogs
		if existing.Mode != form.Mode {
			plan.UpdateLogs = append(plan.UpdateLogs, models.UpdateLog{
				Timestamp: now,
				Field:     "mode",
				OldValue:  strPtr(string(existing.Mode)),
				NewValue:  strPtr(string(form.Mode)),
				UserID:    owner.UserID,
			})
		}
		plan.UpdateLogs = append(plan.UpdateLogs, models.UpdateLog{
			Timestamp: now,
			Field:     "updated",
			NewValue:  strPtr("Plan updated"),
			UserID:    owner.UserID,
		})
	} else {
		plan.CreatedAt = now
		plan.UpdateLogs = []models.UpdateLog{{
			Timestamp: now,
			Field:     "created",
			NewValue:  strPtr("Plan created"),
			UserID:    owner.UserID,
		}}
	}

	plan.Normalize(now)

	if err := s.store.Put(plan); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	return plan, nil
}

// RewriteUserInfo 用户改名或换部门后，批量重写其所有计划上的反规范化快照
// 尽力而为: 档案主写入已成功，这里的失败只记日志，留待下次编辑时收敛
func (s *Service) RewriteUserInfo(ctx context.Context, userID, name, department string) {
	var targets []*models.WeeklyPlan
	for _, plan := range s.store.QueryByUser(userID) {
		if plan.UserName != name || plan.UserDepartment != department {
			cpy := plan
			targets = append(targets, &cpy)
		}
	}

	if len(targets) == 0 {
		return
	}

	now := s.now()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fanoutConcurrency)

	for _, plan := range targets {
		plan := plan
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if plan.UserDepartment != department {
				plan.UpdateLogs = append(plan.UpdateLogs, models.UpdateLog{
					Timestamp: now,
					Field:     "userDepartment",
					OldValue:  strPtr(plan.UserDepartment),
					NewValue:  strPtr(department),
					UserID:    userID,
				})
			}
			plan.UserName = name
			plan.UserDepartment = department
			plan.UpdatedAt = now
			return s.store.Put(plan)
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Warn("profile fanout incomplete, stale plan snapshots remain",
			"user_id", userID, "plans", len(targets), "error", err)
		return
	}
	s.logger.Info("profile fanout complete", "user_id", userID, "plans", len(targets))
}
