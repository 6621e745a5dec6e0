package config

// Sumo 仿真器进程配置
// 功能：定义SUMO进程的启动方式与TraCI监听端口
type Sumo struct {
	Binary     string   `yaml:"binary"`               // 可执行文件名（gui开启时自动替换为sumo-gui）
	CfgFile    string   `yaml:"cfg_file"`             // .sumocfg配置文件路径
	StepLength float64  `yaml:"step_length"`          // 每步仿真时长（秒）
	Gui        bool     `yaml:"gui,omitempty"`        // 是否启用图形界面
	GuiDelay   int      `yaml:"gui_delay,omitempty"`  // 图形界面每步延迟（毫秒）
	RemotePort int      `yaml:"remote_port"`          // TraCI监听端口
	ExtraArgs  []string `yaml:"extra_args,omitempty"` // 附加命令行参数
}

// Network 路网配置
// 功能：定义信控路口的发现方式
// 说明：auto_detect开启时从.net.xml中解析traffic_light类型的路口并推导
// 网格邻接关系；否则使用manual列表或rows×cols网格的默认命名
type Network struct {
	NetFile    string   `yaml:"net_file"`               // SUMO路网文件（.net.xml）
	AutoDetect bool     `yaml:"auto_detect"`            // 是否自动发现信控路口
	Manual     []string `yaml:"manual,omitempty"`       // 手工指定的路口ID列表
	GridRows   int      `yaml:"grid_rows,omitempty"`    // 默认网格行数
	GridCols   int      `yaml:"grid_cols,omitempty"`    // 默认网格列数
}

// Signal 信号相位配置
type Signal struct {
	MinGreen       int     `yaml:"min_green"`        // 最小绿灯时长（tick）
	MaxGreen       int     `yaml:"max_green"`        // 最大绿灯时长（tick）
	Yellow         float64 `yaml:"yellow"`           // 黄灯清空时长（秒）
	NumGreenPhases int     `yaml:"num_green_phases"` // 绿灯相位数（偶数相位为绿，奇数为黄）
	AllowKeep      bool    `yaml:"allow_keep"`       // 动作空间是否包含keep
}

// Observation 观测配置
// 说明：各物理量除以固定归一化常数；车道与邻居特征补零/截断到固定长度
type Observation struct {
	LaneCap       int     `yaml:"lane_cap"`       // 受控车道数上限
	NeighborCap   int     `yaml:"neighbor_cap"`   // 邻居路口数上限
	QueueNorm     float64 `yaml:"queue_norm"`     // 排队数归一化常数
	WaitingNorm   float64 `yaml:"waiting_norm"`   // 等待时间归一化常数
	SpeedNorm     float64 `yaml:"speed_norm"`     // 速度归一化常数
	OccupancyNorm float64 `yaml:"occupancy_norm"` // 占有率归一化常数
	PressureNorm  float64 `yaml:"pressure_norm"`  // 压力归一化常数
}

// Reward 奖励配置
type Reward struct {
	EmergencyWaiting     float64            `yaml:"emergency_waiting"`      // 应急车辆等待权重（大系数）
	NormalWaiting        float64            `yaml:"normal_waiting"`         // 普通车辆等待权重
	Throughput           float64            `yaml:"throughput"`             // 到达车辆数权重
	Speed                float64            `yaml:"speed"`                  // 平均速度权重
	Queue                float64            `yaml:"queue"`                  // 排队数权重
	Pressure             float64            `yaml:"pressure"`               // 压力权重
	PhaseChange          float64            `yaml:"phase_change"`           // 频繁切换惩罚
	PhaseChangeThreshold int                `yaml:"phase_change_threshold"` // 切换惩罚的相位时长阈值（tick）
	PriorityWeights      map[string]float64 `yaml:"priority_weights"`       // 车辆类型->优先级权重
	EmergencyClasses     []string           `yaml:"emergency_classes"`      // 应急车辆类型列表
}

// Congestion 拥堵截断配置
type Congestion struct {
	OccupancyThreshold float64 `yaml:"occupancy_threshold"` // 车道拥堵的占有率阈值（%）
	RatioCeiling       float64 `yaml:"ratio_ceiling"`       // 拥堵车道比例上限
	Penalty            float64 `yaml:"penalty"`             // 拥堵截断时每个路口的额外惩罚
}

// ControlStep 指定episode时间范围和间隔的配置项
type ControlStep struct {
	Total    int32   `yaml:"total"`    // 每episode的tick预算
	Interval float64 `yaml:"interval"` // 每tick的时间间隔（秒）
}

// Control episode控制配置
type Control struct {
	Step               ControlStep `yaml:"step"`
	Episodes           int         `yaml:"episodes"`                      // 训练episode数
	EvalEpisodes       int         `yaml:"eval_episodes,omitempty"`       // 评估episode数
	CheckpointInterval int         `yaml:"checkpoint_interval,omitempty"` // 检查点保存间隔（episode）
	CheckpointDir      string      `yaml:"checkpoint_dir,omitempty"`      // 检查点目录
}

// Output 输出数据库配置（可选）
// 说明：URI为空时禁用输出
type Output struct {
	URI string `yaml:"uri,omitempty"` // MongoDB连接字符串
	DB  string `yaml:"db,omitempty"`  // 数据库名
	Col string `yaml:"col,omitempty"` // 集合名
}

// Config YAML配置文件的根结构
type Config struct {
	Sumo        Sumo        `yaml:"sumo"`        // 仿真器
	Network     Network     `yaml:"network"`     // 路网
	Control     Control     `yaml:"control"`     // episode控制
	Signal      Signal      `yaml:"signal"`      // 信号相位
	Observation Observation `yaml:"observation"` // 观测
	Reward      Reward      `yaml:"reward"`      // 奖励
	Congestion  Congestion  `yaml:"congestion"`  // 拥堵截断
	Output      Output      `yaml:"output"`      // 输出
}
