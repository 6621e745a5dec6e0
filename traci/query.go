package traci

import (
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity"
)

// entity.IGateway的查询与命令实现
// 说明：与原型系统使用的traci查询一一对应

// TrafficLightIDs 全部信号灯ID
func (c *Client) TrafficLightIDs() ([]string, error) {
	return c.getStringList(cmdGetTrafficLightVariable, respTrafficLightVariable, varIDList, "")
}

// ControlledLanes 信号灯受控车道（未去重，按信号顺序）
func (c *Client) ControlledLanes(id string) ([]string, error) {
	return c.getStringList(cmdGetTrafficLightVariable, respTrafficLightVariable, varTLControlledLanes, id)
}

// ControlledLinks 信号灯受控连接
// 说明：响应为复合类型：信号数，每个信号下的连接数与(入,出,经由)三元组
func (c *Client) ControlledLinks(id string) ([]entity.Link, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	p, err := c.getLocked(cmdGetTrafficLightVariable, respTrafficLightVariable, varTLControlledLinks, id)
	if err != nil {
		return nil, err
	}
	if err := p.expectType(typeCompound); err != nil {
		return nil, c.lostLocked(err)
	}
	numSignals, err := p.readInt()
	if err != nil {
		return nil, c.lostLocked(err)
	}
	links := make([]entity.Link, 0, numSignals)
	for i := int32(0); i < numSignals; i++ {
		if err := p.expectType(typeInteger); err != nil {
			return nil, c.lostLocked(err)
		}
		numLinks, err := p.readInt()
		if err != nil {
			return nil, c.lostLocked(err)
		}
		for j := int32(0); j < numLinks; j++ {
			if err := p.expectType(typeStringList); err != nil {
				return nil, c.lostLocked(err)
			}
			triple, err := p.readStringList()
			if err != nil {
				return nil, c.lostLocked(err)
			}
			link := entity.Link{}
			if len(triple) > 0 {
				link.In = triple[0]
			}
			if len(triple) > 1 {
				link.Out = triple[1]
			}
			if len(triple) > 2 {
				link.Via = triple[2]
			}
			links = append(links, link)
		}
	}
	return links, nil
}

// CurrentPhase 信号灯当前相位编号
func (c *Client) CurrentPhase(id string) (int, error) {
	return c.getInt(cmdGetTrafficLightVariable, respTrafficLightVariable, varTLCurrentPhase, id)
}

// SetPhase 设置信号灯相位
func (c *Client) SetPhase(id string, phase int) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	m := newComposer()
	m.writeUByte(varTLPhaseIndex)
	m.writeString(id)
	m.writeUByte(typeInteger)
	m.writeInt(int32(phase))
	_, err := c.requestLocked(cmdSetTrafficLightVariable, m.bytes())
	return err
}

// SetPhaseDuration 设置信号灯当前相位的剩余时长
func (c *Client) SetPhaseDuration(id string, seconds float64) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	m := newComposer()
	m.writeUByte(varTLPhaseDuration)
	m.writeString(id)
	m.writeUByte(typeDouble)
	m.writeDouble(seconds)
	_, err := c.requestLocked(cmdSetTrafficLightVariable, m.bytes())
	return err
}

// LaneQueueLength 车道停驶（排队）车辆数
func (c *Client) LaneQueueLength(laneID string) (int, error) {
	return c.getInt(cmdGetLaneVariable, respLaneVariable, varLaneHaltingNumber, laneID)
}

// LaneWaitingTime 车道累计等待时间（秒）
func (c *Client) LaneWaitingTime(laneID string) (float64, error) {
	return c.getDouble(cmdGetLaneVariable, respLaneVariable, varWaitingTime, laneID)
}

// LaneMeanSpeed 车道平均速度（米/秒）
func (c *Client) LaneMeanSpeed(laneID string) (float64, error) {
	return c.getDouble(cmdGetLaneVariable, respLaneVariable, varLaneMeanSpeed, laneID)
}

// LaneOccupancy 车道占有率（%）
func (c *Client) LaneOccupancy(laneID string) (float64, error) {
	return c.getDouble(cmdGetLaneVariable, respLaneVariable, varLaneOccupancy, laneID)
}

// LaneVehicleCount 车道上车辆数
func (c *Client) LaneVehicleCount(laneID string) (int, error) {
	return c.getInt(cmdGetLaneVariable, respLaneVariable, varLaneVehicleNumber, laneID)
}

// LaneVehicleIDs 车道上车辆ID列表
func (c *Client) LaneVehicleIDs(laneID string) ([]string, error) {
	return c.getStringList(cmdGetLaneVariable, respLaneVariable, varLaneVehicleIDs, laneID)
}

// VehicleClass 车辆类型ID
func (c *Client) VehicleClass(vehID string) (string, error) {
	return c.getString(cmdGetVehicleVariable, respVehicleVariable, varVehicleType, vehID)
}

// VehicleWaitingTime 车辆当前等待时间（秒）
func (c *Client) VehicleWaitingTime(vehID string) (float64, error) {
	return c.getDouble(cmdGetVehicleVariable, respVehicleVariable, varWaitingTime, vehID)
}

// VehicleIDs 当前在网车辆ID列表
func (c *Client) VehicleIDs() ([]string, error) {
	return c.getStringList(cmdGetVehicleVariable, respVehicleVariable, varIDList, "")
}

// ArrivedCount 本步到达（完成行程）车辆数
func (c *Client) ArrivedCount() (int, error) {
	return c.getInt(cmdGetSimVariable, respSimVariable, varArrivedNumber, "")
}

// DepartedCount 本步发出车辆数
func (c *Client) DepartedCount() (int, error) {
	return c.getInt(cmdGetSimVariable, respSimVariable, varDepartedNumber, "")
}
