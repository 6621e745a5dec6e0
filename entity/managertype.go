package entity

import "github.com/tsinghua-fib-lab/trafficrl-oss/entity/action"

// IIntersectionManager 路口管理器接口
// 功能：表达协调层对路口集合的需求：初始化、按tick推进相位协议、
// 观测装配与奖励计算
// 说明：返回的error只在连接丢失等致命错误时非nil；单次查询/命令失败
// 在内部按零值/保持原状降级
type IIntersectionManager interface {
	// Init 从拓扑建立路口集合，路口数为0时返回致命错误
	Init() error
	// Reset 重置所有路口的相位状态机并重新解析受控车道（仿真器重启后调用）
	Reset() error
	// IDs 全部路口ID（有序，作为一个tick内的串行处理顺序）
	IDs() []string
	// ApplyActions 串行地将各路口动作按相位协议写入仿真器
	ApplyActions(actions map[string]action.Action) error
	// ResolvePending 仿真器推进后结算黄灯清空完成的延迟切换
	ResolvePending() error
	// Observe 并行重建所有路口的观测向量
	// 说明：连接丢失时同时返回已装配完成的部分观测与错误
	Observe(reg IEmergencyRegistry) (map[string][]float64, error)
	// Rewards 计算所有路口的即时奖励；arrived为本tick全局到达车辆数
	Rewards(reg IEmergencyRegistry, arrived int) (map[string]float64, error)
	// CongestionRatio 拥堵车道比例（占有率超阈值的受控车道数/受控车道总数）
	CongestionRatio() (float64, error)
}
