package env

import "sync"

// EmergencyRegistry 每episode的已知应急车辆登记表
// 功能：观测装配时登记路网上出现过的应急车辆，奖励计算在车辆类型
// 查询失败时以此回退；reset时清空
// 说明：观测装配跨路口并行，内部加锁
type EmergencyRegistry struct {
	mtx  sync.Mutex
	vehs map[string]bool
}

// NewEmergencyRegistry 创建登记表实例
func NewEmergencyRegistry() *EmergencyRegistry {
	return &EmergencyRegistry{vehs: make(map[string]bool)}
}

// Register 登记一辆应急车辆
func (r *EmergencyRegistry) Register(vehID string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.vehs[vehID] = true
}

// Known 车辆是否已登记
func (r *EmergencyRegistry) Known(vehID string) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.vehs[vehID]
}

// Count 已登记车辆数
func (r *EmergencyRegistry) Count() int {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return len(r.vehs)
}

// Clear 清空登记表（每episode开始时调用）
func (r *EmergencyRegistry) Clear() {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.vehs = make(map[string]bool)
}
