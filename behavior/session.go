package behavior

import (
	"time"

	"github.com/google/uuid"
)

// ClickEvent 是点击序列中的一条记录。
type ClickEvent struct {
	VehicleID string    `json:"vehicleId"`
	Action    string    `json:"action"` // view / like / inquiry / test_drive / share
	Position  int       `json:"position,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionContext 是单会话的滚动上下文。
// 由且仅由一个 Recorder 实例持有，外部只能拿到快照。
type SessionContext struct {
	SessionID   string `json:"sessionId"`
	CurrentPage string `json:"currentPage,omitempty"`

	// ViewedVehicles / SearchQueries 唯一且保持插入序
	ViewedVehicles []string `json:"viewedVehicles"`
	SearchQueries  []string `json:"searchQueries"`

	// TimeSpent 在快照时刷新为会话时长（秒）
	TimeSpent int `json:"timeSpent"`

	// ClickPattern 是容量有限的环形缓冲，最旧的先被挤出
	ClickPattern []ClickEvent `json:"clickPattern"`

	startedAt time.Time
}

func newSessionContext() *SessionContext {
	return &SessionContext{
		SessionID:      uuid.NewString(),
		ViewedVehicles: make([]string, 0, 16),
		SearchQueries:  make([]string, 0, 8),
		ClickPattern:   make([]ClickEvent, 0, 16),
		startedAt:      time.Now(),
	}
}

// addViewed 记录浏览过的车辆（去重，保序）。
func (s *SessionContext) addViewed(vehicleID string) {
	for _, id := range s.ViewedVehicles {
		if id == vehicleID {
			return
		}
	}
	s.ViewedVehicles = append(s.ViewedVehicles, vehicleID)
}

// addQuery 记录搜索词（去重，保序）。
func (s *SessionContext) addQuery(query string) {
	if query == "" {
		return
	}
	for _, q := range s.SearchQueries {
		if q == query {
			return
		}
	}
	s.SearchQueries = append(s.SearchQueries, query)
}

// pushClick 追加点击记录并裁剪到 cap（保留最近的）。
func (s *SessionContext) pushClick(ev ClickEvent, capacity int) {
	s.ClickPattern = append(s.ClickPattern, ev)
	if capacity > 0 && len(s.ClickPattern) > capacity {
		s.ClickPattern = s.ClickPattern[len(s.ClickPattern)-capacity:]
	}
}

// snapshot 返回防御性拷贝，TimeSpent 刷新为当前会话时长。
func (s *SessionContext) snapshot(now time.Time) *SessionContext {
	cloned := &SessionContext{
		SessionID:      s.SessionID,
		CurrentPage:    s.CurrentPage,
		ViewedVehicles: append([]string(nil), s.ViewedVehicles...),
		SearchQueries:  append([]string(nil), s.SearchQueries...),
		TimeSpent:      int(now.Sub(s.startedAt).Seconds()),
		ClickPattern:   append([]ClickEvent(nil), s.ClickPattern...),
		startedAt:      s.startedAt,
	}
	return cloned
}
