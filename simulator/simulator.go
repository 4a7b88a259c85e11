package simulator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"laneCA/config"
	"laneCA/element"
	"laneCA/log"
	"laneCA/render"
	"laneCA/utils"
)

// laneState 一条车道及其驱动层信息
type laneState struct {
	lane        *element.Lane
	removeAtEnd bool
	inTime      map[int64]int // 车辆ID -> 进入车道的时间步
}

// Simulator 驱动一组互相独立的车道
type Simulator struct {
	cfg       *config.Config
	lanes     []*laneState
	generator *VehicleGenerator
	pool      *utils.WorkerPool
	state     *SystemState
	dataFiles *DataFiles

	timeStep            int
	numVehicleCompleted int64
	numSpawnBlocked     int64
}

// Option 配置模拟器的可选参数
type Option func(*Simulator)

// WithDataFiles 设置输出文件，Run会按间隔把缓存数据写入这些文件
func WithDataFiles(files DataFiles) Option {
	return func(s *Simulator) {
		s.dataFiles = &files
	}
}

// New 根据配置创建模拟器：读取需求曲线、创建车道并放置初始车辆
// 使用完毕后需要调用Close释放工作池
func New(cfg *config.Config, opts ...Option) (*Simulator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config: %w", element.ErrInvalidParameter)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var rawDemand []float64
	if cfg.Spawn.Enabled && cfg.Spawn.DemandFile != "" {
		demand, err := ReadDemandCSV(cfg.Spawn.DemandFile)
		if err != nil {
			return nil, err
		}
		rawDemand = demand
	}

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	generator := NewVehicleGenerator(seed, rawDemand)

	lanes, err := CreateLanes(cfg.Lanes)
	if err != nil {
		return nil, err
	}
	placed, err := PlaceVehicles(lanes, cfg.Vehicles, generator)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		cfg:       cfg,
		lanes:     make([]*laneState, len(lanes)),
		generator: generator,
		state:     NewSystemState(),
	}
	for i, lane := range lanes {
		s.lanes[i] = &laneState{
			lane:        lane,
			removeAtEnd: cfg.Lanes[i].RemoveAtEnd,
			inTime:      make(map[int64]int),
		}
	}
	for vehicle, laneIndex := range placed {
		s.lanes[laneIndex].inTime[vehicle.ID()] = 0
	}
	for _, opt := range opts {
		opt(s)
	}

	s.pool = utils.NewWorkerPool(cfg.Simulation.Workers)
	s.updateState()
	return s, nil
}

// Close 停止工作池
func (s *Simulator) Close() {
	s.pool.Stop()
}

// NumLanes 返回车道数量
func (s *Simulator) NumLanes() int {
	return len(s.lanes)
}

// Lane 返回第i条车道
func (s *Simulator) Lane(i int) *element.Lane {
	return s.lanes[i].lane
}

// TimeStep 返回下一个要执行的时间步
func (s *Simulator) TimeStep() int {
	return s.timeStep
}

// State 返回系统状态
func (s *Simulator) State() *SystemState {
	return s.state
}

// Tick 执行一个时间步
//
// 依次执行：入口投放、并行推进所有车道、处理到达终点的车辆、更新并记录系统状态、记录轨迹。
// 某条车道推进失败时返回错误且时间步不前进。失败的车道保持推进前的状态（包括撤回本时间步的投放），
// 已成功推进的其他车道不回退
func (s *Simulator) Tick(ctx context.Context) error {
	timeStep := s.timeStep
	if err := s.VehicleProcess(ctx, timeStep); err != nil {
		return fmt.Errorf("tick %d: %w", timeStep, err)
	}

	s.updateState()
	s.state.RecordData(timeStep)
	s.recordTraces(timeStep)

	s.timeStep++
	return nil
}

func (s *Simulator) updateState() {
	lanes := make([]*element.Lane, len(s.lanes))
	for i, ls := range s.lanes {
		lanes[i] = ls.lane
	}
	s.state.Update(lanes,
		s.generator.NumGenerated(),
		atomic.LoadInt64(&s.numVehicleCompleted),
		atomic.LoadInt64(&s.numSpawnBlocked))
}

// Run 执行steps个时间步，每个时间步之间检查ctx是否已取消
// 按配置的间隔输出日志并写入数据
func (s *Simulator) Run(ctx context.Context, steps int) error {
	logging := s.cfg.Logging
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		timeStep := s.timeStep
		if err := s.Tick(ctx); err != nil {
			return err
		}

		// 按间隔输出日志
		if logging.IntervalWriteToLog > 0 && timeStep%logging.IntervalWriteToLog == 0 {
			s.state.LogStatus(timeStep, s.cfg.Simulation.SecondsPerTick)
			if logging.Render {
				s.logLanes()
			}
		}

		// 按间隔写入系统和车辆数据
		if s.dataFiles != nil && logging.IntervalWriteOtherData > 0 && timeStep%logging.IntervalWriteOtherData == 0 {
			if err := WriteData(*s.dataFiles); err != nil {
				log.WriteLogf("Data write failed at tick %d: %v", timeStep, err)
			}
		}
	}
	return nil
}

// logLanes 把每条车道的文本图写入日志
func (s *Simulator) logLanes() {
	for i, ls := range s.lanes {
		log.WriteLogf("Lane %d:\n%s", i, render.Strip(ls.lane, s.cfg.Logging.RenderWidth))
	}
}
