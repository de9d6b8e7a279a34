package core

import "sort"

// Catalog 是车辆/用户/历史交互的启动时快照。
// 构建完成后只读，可被并发请求安全共享。
type Catalog struct {
	Vehicles []*Vehicle
	Users    []*UserProfile
	History  []*Interaction

	vehicleByID map[string]*Vehicle
	userByID    map[string]*UserProfile
	byUser      map[string][]*Interaction
}

// NewCatalog 构建目录快照并建立索引。传入的切片不再被外部修改。
func NewCatalog(vehicles []*Vehicle, users []*UserProfile, history []*Interaction) *Catalog {
	c := &Catalog{
		Vehicles:    vehicles,
		Users:       users,
		History:     history,
		vehicleByID: make(map[string]*Vehicle, len(vehicles)),
		userByID:    make(map[string]*UserProfile, len(users)),
		byUser:      make(map[string][]*Interaction),
	}
	for _, v := range vehicles {
		if v != nil {
			c.vehicleByID[v.ID] = v
		}
	}
	for _, u := range users {
		if u != nil {
			c.userByID[u.UserID] = u
		}
	}
	for _, it := range history {
		if it != nil {
			c.byUser[it.UserID] = append(c.byUser[it.UserID], it)
		}
	}
	return c
}

// Vehicle 按 ID 查车辆，不存在返回 nil。
func (c *Catalog) Vehicle(id string) *Vehicle {
	return c.vehicleByID[id]
}

// User 按 ID 查用户画像，不存在返回 nil。
func (c *Catalog) User(id string) *UserProfile {
	return c.userByID[id]
}

// UserHistory 返回某用户的全部历史交互。
func (c *Catalog) UserHistory(userID string) []*Interaction {
	return c.byUser[userID]
}

// GroupedHistory 将历史交互先按用户、再按车辆分组。
// 训练时每个 (user, vehicle) 组恰好向 SimilarityProvider 提交一次。
func (c *Catalog) GroupedHistory() map[string]map[string][]*Interaction {
	grouped := make(map[string]map[string][]*Interaction, len(c.byUser))
	for userID, interactions := range c.byUser {
		byVehicle := make(map[string][]*Interaction)
		for _, it := range interactions {
			byVehicle[it.VehicleID] = append(byVehicle[it.VehicleID], it)
		}
		grouped[userID] = byVehicle
	}
	return grouped
}

// FavoredVehicles 返回某用户最近 n 条指定类型交互对应的车辆 ID（新→旧，去重）。
func (c *Catalog) FavoredVehicles(userID string, types []InteractionType, n int) []string {
	interactions := c.byUser[userID]
	if len(interactions) == 0 || n <= 0 {
		return nil
	}

	wanted := make(map[InteractionType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}

	matched := make([]*Interaction, 0, len(interactions))
	for _, it := range interactions {
		if wanted[it.Type] {
			matched = append(matched, it)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for _, it := range matched {
		if seen[it.VehicleID] {
			continue
		}
		seen[it.VehicleID] = true
		out = append(out, it.VehicleID)
		if len(out) >= n {
			break
		}
	}
	return out
}
