package traci

import "github.com/sirupsen/logrus"

// log TraCI模块的日志记录器
var log = logrus.WithField("module", "traci")
