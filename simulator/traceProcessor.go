package simulator

import (
	"laneCA/config"
	"laneCA/recorder"
)

// shouldRecordTrace 判断当前时间步是否需要记录轨迹
func shouldRecordTrace(out config.OutputConfig, timeStep int) bool {
	if !out.Trace {
		return false // 如果未启用轨迹记录，则不处理
	}
	interval := out.TraceInterval
	if interval <= 0 {
		interval = 1
	}
	return timeStep%interval == 0
}

// recordTraces 记录所有车道上车辆在当前时间步的状态
func (s *Simulator) recordTraces(timeStep int) {
	if !shouldRecordTrace(s.cfg.Output, timeStep) {
		return
	}
	for i, ls := range s.lanes {
		recorder.RecordTraceData(timeStep, i, ls.lane)
	}
}
