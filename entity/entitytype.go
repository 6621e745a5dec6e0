package entity

import "errors"

// 依赖倒置，表达核心协调层对外部协作者（仿真器、路网拓扑、决策策略）的接口需求

var (
	// ErrConnectionLost 仿真器连接丢失（致命错误）
	// 说明：网关在底层连接断开时用%w包装本错误，调用方通过errors.Is区分
	// 可恢复的单次查询失败与不可恢复的连接丢失
	ErrConnectionLost = errors.New("simulator connection lost")
)

// Link 信号灯受控连接：入车道经由路口内部车道到达出车道
type Link struct {
	In  string // 入车道ID
	Out string // 出车道ID
	Via string // 路口内部车道ID（可为空）
}

// IGateway 仿真器网关接口
// 功能：表达协调层对外部步进式仿真器的全部查询与命令需求
// 说明：查询失败返回普通error（调用方按零值降级处理）；连接丢失
// 返回包装了ErrConnectionLost的error（调用方终止episode）
type IGateway interface {
	// 生命周期
	Start(args []string) error // 启动仿真器进程并建立连接
	Tick() error               // 推进仿真一步
	Connected() bool           // 连接是否存活
	Close() error              // 关闭连接与进程，幂等

	// 信号灯
	TrafficLightIDs() ([]string, error)
	ControlledLanes(id string) ([]string, error)
	ControlledLinks(id string) ([]Link, error)
	CurrentPhase(id string) (int, error)
	SetPhase(id string, phase int) error
	SetPhaseDuration(id string, seconds float64) error

	// 车道
	LaneQueueLength(laneID string) (int, error)    // 排队（停驶）车辆数
	LaneWaitingTime(laneID string) (float64, error)
	LaneMeanSpeed(laneID string) (float64, error)
	LaneOccupancy(laneID string) (float64, error) // 占有率（0~100，百分比）
	LaneVehicleCount(laneID string) (int, error)
	LaneVehicleIDs(laneID string) ([]string, error)

	// 车辆
	VehicleClass(vehID string) (string, error) // 车辆类型（如ambulance/car）
	VehicleWaitingTime(vehID string) (float64, error)
	VehicleIDs() ([]string, error)

	// 仿真全局量
	ArrivedCount() (int, error)  // 本步到达（完成行程）车辆数
	DepartedCount() (int, error) // 本步发出车辆数
}

// ITopology 路网拓扑接口
type ITopology interface {
	Intersections() []string        // 全部信控路口ID（有序）
	Neighbors(id string) []string   // 网格相邻路口ID（≤4）
}

// PolicyExtras 决策策略每步产生的附加数据
// 说明：以tagged variant表达不同算法的附加量，EpisodeLoop统一透传，
// 核心不解释其内容
type PolicyExtras interface{ isPolicyExtras() }

// NoExtras 无附加数据（如DQN、基线策略）
type NoExtras struct{}

// PPOExtras PPO类策略的附加数据
type PPOExtras struct {
	LogProb float64 // 所选动作的对数概率
}

// A3CExtras A3C类策略的附加数据
type A3CExtras struct {
	LogProb float64 // 所选动作的对数概率
	Value   float64 // 状态价值估计
}

func (NoExtras) isPolicyExtras()  {}
func (PPOExtras) isPolicyExtras() {}
func (A3CExtras) isPolicyExtras() {}

// Transition 单步交互记录，交给策略更新接口的基本单元
// 说明：核心不跨tick保留该记录
type Transition struct {
	ID              string       // 路口ID
	Observation     []float64    // 动作前观测
	ActionIndex     int          // 动作编码
	Reward          float64      // 即时奖励
	NextObservation []float64    // 动作后观测
	Terminal        bool         // episode是否终止
	Extras          PolicyExtras // 策略附加数据
}

// IPolicy 决策策略接口（外部可插拔组件）
// 说明：核心只依赖本契约，不关心策略内部表示
type IPolicy interface {
	// 为指定路口选择动作，返回动作编码与附加数据
	SelectAction(id string, observation []float64, explore bool) (int, PolicyExtras)
	// 用一批transition更新策略，返回标量loss；ok为false表示本次无更新
	Update(batch []*Transition) (loss float64, ok bool)
}

// ICheckpointer 可选的检查点保存接口
// 说明：检查点的序列化格式由外部策略负责，核心只负责触发节奏
type ICheckpointer interface {
	Save(dir string) error
}

// IEmergencyRegistry 每episode的已知应急车辆登记表
// 说明：由协调层持有并在reset时清空，观测构建时登记、奖励计算时查询
type IEmergencyRegistry interface {
	Register(vehID string)
	Known(vehID string) bool
	Count() int
	Clear()
}
