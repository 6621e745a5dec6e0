package traci

// TraCI协议常量（与SUMO的TraCIConstants保持一致）

// 命令
const (
	cmdGetVersion byte = 0x00 // 版本握手
	cmdSimStep    byte = 0x02 // 推进仿真
	cmdClose      byte = 0x7F // 关闭连接

	cmdGetTrafficLightVariable byte = 0xa2 // 信号灯查询
	cmdGetLaneVariable         byte = 0xa3 // 车道查询
	cmdGetVehicleVariable      byte = 0xa4 // 车辆查询
	cmdGetSimVariable          byte = 0xab // 仿真全局查询
	cmdSetTrafficLightVariable byte = 0xc2 // 信号灯命令

	respTrafficLightVariable byte = 0xb2
	respLaneVariable         byte = 0xb3
	respVehicleVariable      byte = 0xb4
	respSimVariable          byte = 0xbb
)

// 变量
const (
	varIDList byte = 0x00

	varLaneVehicleNumber byte = 0x10 // 车道上车辆数
	varLaneMeanSpeed     byte = 0x11 // 车道平均速度
	varLaneVehicleIDs    byte = 0x12 // 车道上车辆ID列表
	varLaneOccupancy     byte = 0x13 // 车道占有率（%）
	varLaneHaltingNumber byte = 0x14 // 车道停驶（排队）车辆数

	varWaitingTime byte = 0x7a // 等待时间（车道累计/车辆当前）
	varVehicleType byte = 0x4f // 车辆类型ID

	varTLPhaseIndex      byte = 0x22 // 相位编号（写）
	varTLPhaseDuration   byte = 0x24 // 相位持续时长（写）
	varTLControlledLanes byte = 0x26 // 受控车道
	varTLControlledLinks byte = 0x27 // 受控连接
	varTLCurrentPhase    byte = 0x28 // 当前相位编号（读）

	varDepartedNumber byte = 0x73 // 本步发出车辆数
	varArrivedNumber  byte = 0x79 // 本步到达车辆数
)

// 状态码
const (
	statusOK  byte = 0x00
	statusErr byte = 0xFF
)

// 数据类型
const (
	typeUByte      byte = 0x07
	typeByte       byte = 0x08
	typeInteger    byte = 0x09
	typeDouble     byte = 0x0B
	typeString     byte = 0x0C
	typeStringList byte = 0x0E
	typeCompound   byte = 0x0F
)
