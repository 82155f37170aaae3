// Package plans 实现周计划的文档存储与订阅分发
// 每个计划一个 JSON 文件，内存全量镜像 + RWMutex，写入走 tmp+rename
package plans

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/teamplanhq/weekplan/cmd/server/internal/models"
	"github.com/teamplanhq/weekplan/pkg/logger"
)

// Snapshot 订阅回调收到的是匹配过滤条件的全量当前结果集，不是增量
// 消费方必须整体替换本地副本，避免删除后的残留
type Snapshot func(plans []models.WeeklyPlan)

// Unsubscribe 释放订阅通道
type Unsubscribe func()

type subscriber struct {
	week   string // 订阅开通时绑定的周键，投递只路由到匹配周
	userID string // 为空表示整周订阅
	cb     Snapshot

	mu      sync.Mutex
	lastSeq uint64
}

// deliver 投递快照，丢弃比已投递版本更旧的快照
// 两次并发写的回调在锁外执行，顺序不保证，序号保证订阅方最终看到的是新状态
func (sub *subscriber) deliver(seq uint64, snap []models.WeeklyPlan) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if seq <= sub.lastSeq {
		return
	}
	sub.lastSeq = seq
	sub.cb(snap)
}

// Store 周计划文档存储
type Store struct {
	mu      sync.RWMutex
	dir     string
	logger  *slog.Logger
	byID    map[string]*models.WeeklyPlan
	subs    map[int]*subscriber
	nextSub int
	seq     uint64 // 快照版本号，锁内递增
}

// NewStore 打开存储目录并载入全部现有计划
func NewStore(dir string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure plans dir: %w", err)
	}
	s := &Store{
		dir:    dir,
		logger: log,
		byID:   map[string]*models.WeeklyPlan{},
		subs:   map[int]*subscriber{},
	}
	if err := s.loadAll(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read plans dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read plan file %s: %w", entry.Name(), err)
		}
		var plan models.WeeklyPlan
		if err := json.Unmarshal(b, &plan); err != nil {
			// 单个损坏文件跳过，不拖垮整周视图
			continue
		}
		s.byID[plan.ID] = &plan
	}
	return nil
}

func (s *Store) planPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Get 按 (userID, week) 取计划，不存在返回 false
func (s *Store) Get(userID, weekID string) (*models.WeeklyPlan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.byID[models.PlanID(userID, weekID)]
	if !ok {
		return nil, false
	}
	cpy := *plan
	return &cpy, true
}

// Put 全文档覆盖写入（last-write-wins），随后向匹配订阅投递全量快照
// 单个计划的字段在一次写入内原子可见，不存在部分写
func (s *Store) Put(plan *models.WeeklyPlan) error {
	if plan.ID == "" {
		plan.ID = models.PlanID(plan.UserID, plan.WeekIdentifier)
	}

	b, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	s.mu.Lock()
	action := "update"
	if _, exists := s.byID[plan.ID]; !exists {
		action = "create"
	}
	tmp := s.planPath(plan.ID) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		s.mu.Unlock()
		logger.LogStoreWrite(s.logger, "plan", action, plan.ID, err)
		return fmt.Errorf("write tmp file: %w", err)
	}
	if err := os.Rename(tmp, s.planPath(plan.ID)); err != nil {
		s.mu.Unlock()
		logger.LogStoreWrite(s.logger, "plan", action, plan.ID, err)
		return fmt.Errorf("rename tmp file: %w", err)
	}
	cpy := *plan
	s.byID[plan.ID] = &cpy
	s.seq++
	deliveries := s.collectDeliveriesLocked(plan.WeekIdentifier, s.seq)
	s.mu.Unlock()

	logger.LogStoreWrite(s.logger, "plan", action, plan.ID, nil)
	for _, d := range deliveries {
		d()
	}
	return nil
}

// QueryByWeek 返回该周全部计划，按用户名排序保证展示稳定
func (s *Store) QueryByWeek(weekID string) []models.WeeklyPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryByWeekLocked(weekID)
}

func (s *Store) queryByWeekLocked(weekID string) []models.WeeklyPlan {
	out := []models.WeeklyPlan{}
	for _, plan := range s.byID {
		if plan.WeekIdentifier == weekID {
			out = append(out, *plan)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserName != out[j].UserName {
			return out[i].UserName < out[j].UserName
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// QueryByUser 返回某用户的全部计划（跨周），按周标识排序
func (s *Store) QueryByUser(userID string) []models.WeeklyPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.WeeklyPlan{}
	for _, plan := range s.byID {
		if plan.UserID == userID {
			out = append(out, *plan)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].WeekIdentifier < out[j].WeekIdentifier
	})
	return out
}

// Subscribe 订阅单个用户某周的计划，注册时立即投递一次当前快照
func (s *Store) Subscribe(userID, weekID string, cb Snapshot) Unsubscribe {
	return s.subscribe(&subscriber{week: weekID, userID: userID, cb: cb})
}

// SubscribeWeek 订阅整周的计划集合
func (s *Store) SubscribeWeek(weekID string, cb Snapshot) Unsubscribe {
	return s.subscribe(&subscriber{week: weekID, cb: cb})
}

func (s *Store) subscribe(sub *subscriber) Unsubscribe {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	s.seq++
	seq := s.seq
	initial := s.snapshotForLocked(sub)
	s.mu.Unlock()

	sub.deliver(seq, initial)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// SubscriberCount 当前活跃订阅数（用于指标）
func (s *Store) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *Store) snapshotForLocked(sub *subscriber) []models.WeeklyPlan {
	if sub.userID == "" {
		return s.queryByWeekLocked(sub.week)
	}
	if plan, ok := s.byID[models.PlanID(sub.userID, sub.week)]; ok {
		return []models.WeeklyPlan{*plan}
	}
	return []models.WeeklyPlan{}
}

// collectDeliveriesLocked 为周键匹配的订阅生成投递闭包，锁外执行回调
func (s *Store) collectDeliveriesLocked(weekID string, seq uint64) []func() {
	var deliveries []func()
	for _, sub := range s.subs {
		if sub.week != weekID {
			continue
		}
		sub := sub
		snapshot := s.snapshotForLocked(sub)
		deliveries = append(deliveries, func() { sub.deliver(seq, snapshot) })
	}
	return deliveries
}
