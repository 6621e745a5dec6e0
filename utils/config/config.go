package config

import "strconv"

// RuntimeConfig 运行时配置
// 功能：在YAML配置上补全默认值，作为运行期唯一配置入口
type RuntimeConfig struct {
	All Config // 补全默认值后的全部配置
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：创建运行时配置对象并补全默认值
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针
// 说明：默认值与原型系统保持一致（12/30秒绿灯、3秒黄灯、4个绿灯相位、
// 8车道4邻居、70%占有率阈值等）
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{All: config}
	c := &rc.All

	if c.Sumo.Binary == "" {
		c.Sumo.Binary = "sumo"
	}
	if c.Sumo.StepLength == 0 {
		c.Sumo.StepLength = 1.0
	}
	if c.Sumo.RemotePort == 0 {
		c.Sumo.RemotePort = 8813
	}
	if c.Network.GridRows == 0 {
		c.Network.GridRows = 3
	}
	if c.Network.GridCols == 0 {
		c.Network.GridCols = 3
	}
	if c.Control.Step.Total == 0 {
		c.Control.Step.Total = 3600
	}
	if c.Control.Step.Interval == 0 {
		c.Control.Step.Interval = c.Sumo.StepLength
	}
	if c.Control.Episodes == 0 {
		c.Control.Episodes = 100
	}
	if c.Control.EvalEpisodes == 0 {
		c.Control.EvalEpisodes = 5
	}
	if c.Signal.MinGreen == 0 {
		c.Signal.MinGreen = 12
	}
	if c.Signal.MaxGreen == 0 {
		c.Signal.MaxGreen = 30
	}
	if c.Signal.Yellow == 0 {
		c.Signal.Yellow = 3
	}
	if c.Signal.NumGreenPhases == 0 {
		c.Signal.NumGreenPhases = 4
	}
	if c.Observation.LaneCap == 0 {
		c.Observation.LaneCap = 8
	}
	if c.Observation.NeighborCap == 0 {
		c.Observation.NeighborCap = 4
	}
	if c.Observation.QueueNorm == 0 {
		c.Observation.QueueNorm = 20
	}
	if c.Observation.WaitingNorm == 0 {
		c.Observation.WaitingNorm = 100
	}
	if c.Observation.SpeedNorm == 0 {
		c.Observation.SpeedNorm = 13.9
	}
	if c.Observation.OccupancyNorm == 0 {
		c.Observation.OccupancyNorm = 100
	}
	if c.Observation.PressureNorm == 0 {
		c.Observation.PressureNorm = 20
	}
	if c.Reward.EmergencyWaiting == 0 {
		c.Reward.EmergencyWaiting = -5.0
	}
	if c.Reward.NormalWaiting == 0 {
		c.Reward.NormalWaiting = -0.1
	}
	if c.Reward.Throughput == 0 {
		c.Reward.Throughput = 0.5
	}
	if c.Reward.Speed == 0 {
		c.Reward.Speed = 0.2
	}
	if c.Reward.Queue == 0 {
		c.Reward.Queue = -0.3
	}
	if c.Reward.Pressure == 0 {
		c.Reward.Pressure = -0.2
	}
	if c.Reward.PhaseChange == 0 {
		c.Reward.PhaseChange = -2.0
	}
	if c.Reward.PhaseChangeThreshold == 0 {
		c.Reward.PhaseChangeThreshold = 3
	}
	if c.Reward.PriorityWeights == nil {
		c.Reward.PriorityWeights = map[string]float64{
			"ambulance": 10, "firetruck": 10, "police": 7,
			"truck": 4, "bus": 4, "car": 3, "auto": 2, "bike": 1,
		}
	}
	if c.Reward.EmergencyClasses == nil {
		c.Reward.EmergencyClasses = []string{"ambulance", "firetruck", "police"}
	}
	if c.Congestion.OccupancyThreshold == 0 {
		c.Congestion.OccupancyThreshold = 70
	}
	if c.Congestion.RatioCeiling == 0 {
		c.Congestion.RatioCeiling = 0.7
	}
	if c.Congestion.Penalty == 0 {
		c.Congestion.Penalty = 50
	}
	return rc
}

// SumoCommand 生成仿真器启动命令
// 功能：根据配置拼装SUMO命令行（不含TraCI端口参数，由网关追加）
// 返回：完整命令行参数列表，首项为可执行文件
func (rc *RuntimeConfig) SumoCommand() []string {
	c := rc.All.Sumo
	binary := c.Binary
	if c.Gui {
		binary = "sumo-gui"
	}
	cmd := []string{binary, "-c", c.CfgFile}
	cmd = append(cmd, "--step-length", strconv.FormatFloat(c.StepLength, 'f', -1, 64))
	if c.Gui {
		cmd = append(cmd, "--delay", strconv.Itoa(c.GuiDelay))
	}
	cmd = append(cmd,
		"--waiting-time-memory", "1000",
		"--time-to-teleport", "-1",
		"--no-step-log", "true",
	)
	if !c.Gui {
		cmd = append(cmd, "--no-warnings", "true")
	}
	return append(cmd, c.ExtraArgs...)
}
