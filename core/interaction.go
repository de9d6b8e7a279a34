package core

import "time"

// InteractionType 是行为事件类型。
// 行为采集端只产生前五种；历史交互日志里还会出现目录侧的点击类事件
// （click / long_hover / save / detail_view / compare_add / skip），
// 它们参与热度统计与相似用户的偏好扫描。
type InteractionType string

const (
	InteractionView      InteractionType = "view"
	InteractionLike      InteractionType = "like"
	InteractionInquiry   InteractionType = "inquiry"
	InteractionTestDrive InteractionType = "test_drive"
	InteractionShare     InteractionType = "share"

	InteractionClick      InteractionType = "click"
	InteractionLongHover  InteractionType = "long_hover"
	InteractionSave       InteractionType = "save"
	InteractionDetailView InteractionType = "detail_view"
	InteractionCompareAdd InteractionType = "compare_add"
	InteractionSkip       InteractionType = "skip"
)

// InteractionContext 记录事件发生时的来源页面与列表位置。
type InteractionContext struct {
	Source   string `json:"source"`
	Position int    `json:"position,omitempty"`
}

// Interaction 是一条用户-车辆行为事件。
// 除当前打开的 view 记录外不可变：view 的 duration/confidence 在
// 浏览结束时一次性定稿，之后同样不再修改。
type Interaction struct {
	ID        string             `json:"id"`
	UserID    string             `json:"userId"`
	VehicleID string             `json:"vehicleId"`
	Type      InteractionType    `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	Duration  int                `json:"duration,omitempty"` // 秒
	Confidence float64           `json:"confidence"`         // 0-1
	Context   InteractionContext `json:"context"`
}

// IsExplicit 返回该事件是否为显式兴趣动作（参与参与度分级）。
func (i *Interaction) IsExplicit() bool {
	switch i.Type {
	case InteractionLike, InteractionInquiry, InteractionTestDrive:
		return true
	}
	return false
}
