package simulator

import (
	"context"
	"fmt"
	"sync/atomic"

	"laneCA/element"
	"laneCA/log"
	"laneCA/recorder"

	"github.com/samber/lo"
)

// placedVehicle 车道快照中的一辆车
type placedVehicle struct {
	position float64
	vehicle  *element.Vehicle
}

func laneSnapshot(lane *element.Lane) []placedVehicle {
	snapshot := make([]placedVehicle, 0, lane.Len())
	for position, vehicle := range lane.VehiclesByPosition() {
		snapshot = append(snapshot, placedVehicle{position: position, vehicle: vehicle})
	}
	return snapshot
}

// VehicleProcess 处理当前时间步所有车辆
// 依次执行：入口投放、并行推进各车道、处理到达终点的车辆。
// 入口车道推进失败时撤回本时间步投放的车辆，该车道保持时间步开始前的状态
func (s *Simulator) VehicleProcess(ctx context.Context, timeStep int) error {
	spawned, blocked, err := s.spawnVehicles(timeStep)
	if err != nil {
		return err
	}

	stepped, err := s.updateVehiclePosition(ctx)
	if err != nil {
		if len(spawned) > 0 && !stepped[s.cfg.Spawn.Lane] {
			s.withdrawSpawned(spawned)
		}
		return err
	}

	atomic.AddInt64(&s.numSpawnBlocked, int64(blocked))
	s.checkCompletedVehicle(timeStep)
	return nil
}

// spawnVehicles 在入口车道投放车辆
// 返回投放的车辆和入口处被放弃的车辆数
func (s *Simulator) spawnVehicles(timeStep int) ([]*element.Vehicle, int, error) {
	spawn := s.cfg.Spawn
	if !spawn.Enabled {
		return nil, 0, nil
	}

	ls := s.lanes[spawn.Lane]
	spawned, blocked, err := s.generator.Spawn(timeStep, ls.lane, spawn)
	if err != nil {
		return nil, 0, fmt.Errorf("lane %d: %w", spawn.Lane, err)
	}
	for _, vehicle := range spawned {
		ls.inTime[vehicle.ID()] = timeStep
	}
	return spawned, blocked, nil
}

// withdrawSpawned 撤回本时间步投放的车辆，并归还它们占用的ID
func (s *Simulator) withdrawSpawned(spawned []*element.Vehicle) {
	ls := s.lanes[s.cfg.Spawn.Lane]
	for _, vehicle := range spawned {
		if _, err := ls.lane.Remove(vehicle.ID()); err != nil {
			log.WriteLogf("Withdraw vehicle %d: %v", vehicle.ID(), err)
			continue
		}
		delete(ls.inTime, vehicle.ID())
	}
	s.generator.release(len(spawned))
}

// updateVehiclePosition 使用工作池并行推进所有车道
// 车道之间互不影响，任一车道出错时合并返回所有错误；stepped标记成功推进的车道
func (s *Simulator) updateVehiclePosition(ctx context.Context) ([]bool, error) {
	stepped := make([]bool, len(s.lanes))
	tasks := lo.Map(s.lanes, func(ls *laneState, i int) func() error {
		return func() error {
			if err := ls.lane.Step(); err != nil {
				return fmt.Errorf("lane %d: %w", i, err)
			}
			stepped[i] = true
			return nil
		}
	})
	return stepped, s.pool.RunAll(ctx, tasks)
}

// checkCompletedVehicle 移出开放车道上越过终点的车辆并记录车辆数据
func (s *Simulator) checkCompletedVehicle(timeStep int) {
	for i, ls := range s.lanes {
		if !ls.removeAtEnd {
			continue
		}

		length := ls.lane.Length()
		exited := lo.Filter(laneSnapshot(ls.lane), func(p placedVehicle, _ int) bool {
			return p.position >= length
		})
		for _, p := range exited {
			if _, err := ls.lane.Remove(p.vehicle.ID()); err != nil {
				continue
			}
			recorder.RecordVehicleData(p.vehicle, i, ls.inTime[p.vehicle.ID()], timeStep)
			delete(ls.inTime, p.vehicle.ID())
			atomic.AddInt64(&s.numVehicleCompleted, 1)
		}
	}
}
