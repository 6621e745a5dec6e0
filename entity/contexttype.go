package entity

import (
	"github.com/tsinghua-fib-lab/trafficrl-oss/clock"
	"github.com/tsinghua-fib-lab/trafficrl-oss/utils/config"
)

type ITaskContext interface {
	Clock() *clock.Clock
	Gateway() IGateway
	Topology() ITopology
	IntersectionManager() IIntersectionManager
	RuntimeConfig() *config.RuntimeConfig
}
