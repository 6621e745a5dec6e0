package intersection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity"
)

func TestRewardTerms(t *testing.T) {
	gw := newStubGateway()
	gw.lanes["n00"] = []string{"l0", "l1"}
	gw.links["n00"] = []entity.Link{{In: "l0", Out: "o0"}, {In: "l1", Out: "o1"}}
	gw.laneVehs["l0"] = []string{"amb", "car1"}
	gw.vehClass["amb"] = "ambulance"
	gw.vehClass["car1"] = "car"
	gw.vehWaits["amb"] = 10
	gw.vehWaits["car1"] = 20
	gw.queues["l0"] = 4
	gw.speeds["l0"] = 5
	gw.counts["l0"] = 3
	gw.counts["o0"] = 1

	m, err := newTestManager(gw, []string{"n00"}, nil)
	assert.Nil(t, err)

	rewards, err := m.Rewards(newStubRegistry(), 2)
	assert.Nil(t, err)
	// 应急等待 -5*(10*10) = -500
	// 普通等待 -0.1*(20*3) = -6
	// 到达 0.5*2 = 1
	// 速度 0.2*((5+0)/2) = 0.5
	// 排队 -0.3*4 = -1.2
	// 压力 -0.2*|3-1| = -0.4
	// 切换惩罚（相位时长0 < 3）= -2
	assert.InDelta(t, -508.1, rewards["n00"], 1e-9)
}

func TestRewardEmergencyDominates(t *testing.T) {
	gw := newStubGateway()
	gw.lanes["n00"] = []string{"l0"}
	gw.laneVehs["l0"] = []string{"amb", "car1"}
	gw.vehClass["amb"] = "ambulance"
	gw.vehClass["car1"] = "car"
	// 等待时间相同，应急车辆的贡献远大于普通车辆
	gw.vehWaits["amb"] = 10
	gw.vehWaits["car1"] = 10

	m, err := newTestManager(gw, []string{"n00"}, nil)
	assert.Nil(t, err)

	rewards, err := m.Rewards(newStubRegistry(), 0)
	assert.Nil(t, err)
	// 应急项 -5*100 = -500 相对普通项 -0.1*30 = -3
	assert.InDelta(t, -500-3-2, rewards["n00"], 1e-9)
}

func TestRewardRegistryFallback(t *testing.T) {
	gw := newStubGateway()
	gw.lanes["n00"] = []string{"l0", "l1"}
	gw.laneVehs["l0"] = []string{"emg1"}
	gw.vehWaits["emg1"] = 8
	// 类型查询失败（车辆不在vehClass中）

	m, err := newTestManager(gw, []string{"n00"}, nil)
	assert.Nil(t, err)

	// 未登记：该车辆不贡献等待项
	rewards, err := m.Rewards(newStubRegistry(), 0)
	assert.Nil(t, err)
	assert.InDelta(t, -2, rewards["n00"], 1e-9)

	// 已登记：按应急类型的最大权重计入应急项 -5*(8*10) = -400
	reg := newStubRegistry()
	reg.Register("emg1")
	rewards, err = m.Rewards(reg, 0)
	assert.Nil(t, err)
	assert.InDelta(t, -402, rewards["n00"], 1e-9)
}

func TestRewardPhaseChurnThreshold(t *testing.T) {
	gw := newStubGateway()
	gw.lanes["n00"] = []string{"l0"}
	m, err := newTestManager(gw, []string{"n00"}, nil)
	assert.Nil(t, err)

	// 相位时长达到阈值后不再施加切换惩罚
	m.Get("n00").timer = 3
	rewards, err := m.Rewards(newStubRegistry(), 0)
	assert.Nil(t, err)
	assert.Zero(t, rewards["n00"])
}
