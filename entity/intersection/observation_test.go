package intersection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity"
)

func TestObservationWidth(t *testing.T) {
	// 默认配置：8车道4邻居 -> 5*8+3+2*4 = 51维
	assert.Equal(t, 51, ObservationWidth(8, 4))
}

func TestObserveZeroLanes(t *testing.T) {
	gw := newStubGateway()
	// 网关解析不到任何受控车道
	m, err := newTestManager(gw, []string{"n00"}, nil)
	assert.Nil(t, err)

	obs, err := m.Observe(newStubRegistry())
	assert.Nil(t, err)
	assert.Len(t, obs["n00"], 51)
	for _, v := range obs["n00"] {
		assert.Zero(t, v)
	}
}

func TestObserveFeatureLayout(t *testing.T) {
	gw := newStubGateway()
	gw.lanes["n00"] = []string{"l0", "l1"}
	gw.links["n00"] = []entity.Link{{In: "l0", Out: "o0"}, {In: "l1", Out: "o1"}}
	gw.lanes["n01"] = []string{"l2"}
	gw.queues["l0"] = 10
	gw.waits["l0"] = 50
	gw.speeds["l0"] = 13.9
	gw.occupancy["l0"] = 50
	gw.laneVehs["l0"] = []string{"amb1"}
	gw.vehClass["amb1"] = "ambulance"
	gw.counts["l0"] = 3
	gw.counts["o0"] = 1
	gw.queues["l2"] = 4
	gw.waits["l2"] = 20

	m, err := newTestManager(gw, []string{"n00", "n01"}, map[string][]string{"n00": {"n01"}})
	assert.Nil(t, err)
	m.Get("n00").timer = 15

	reg := newStubRegistry()
	obs, err := m.Observe(reg)
	assert.Nil(t, err)
	v := obs["n00"]
	assert.Len(t, v, 51)

	// 车道特征块：l0位于各块第0槽位
	assert.InDelta(t, 0.5, v[0], 1e-9)  // 排队 10/20
	assert.InDelta(t, 0.5, v[8], 1e-9)  // 等待 50/100
	assert.InDelta(t, 1.0, v[16], 1e-9) // 速度 13.9/13.9
	assert.InDelta(t, 0.5, v[24], 1e-9) // 占有率 50/100
	assert.InDelta(t, 1.0, v[32], 1e-9) // 应急标志
	// l1无数据，各块第1槽位为零
	assert.Zero(t, v[1])
	assert.Zero(t, v[33])

	// 相位状态标量
	assert.Zero(t, v[40])               // 相位0
	assert.InDelta(t, 0.5, v[41], 1e-9) // 相位时长 15/30
	assert.InDelta(t, 0.1, v[42], 1e-9) // 压力 (3-1)/20

	// 邻居特征：n01单车道，排队4/20、等待20/100
	assert.InDelta(t, 0.2, v[43], 1e-9)
	assert.InDelta(t, 0.2, v[44], 1e-9)
	// 不足4个邻居的槽位补零
	assert.Zero(t, v[45])

	// 观测到的应急车辆已登记
	assert.True(t, reg.Known("amb1"))
	assert.Equal(t, 1, reg.Count())
}

func TestObserveQueryFailureFallsBackToZero(t *testing.T) {
	gw := newStubGateway()
	gw.lanes["n00"] = []string{"l0"}
	m, err := newTestManager(gw, []string{"n00"}, nil)
	assert.Nil(t, err)

	// 车道解析完成后所有查询开始失败：逐项记零而不是报错
	gw.err = assert.AnError
	obs, err := m.Observe(newStubRegistry())
	assert.Nil(t, err)
	for _, v := range obs["n00"] {
		assert.Zero(t, v)
	}
}
