package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Config 保存所有配置项的顶级结构
type Config struct {
	Simulation SimulationConfig  `json:"simulation"`
	Logging    LoggingConfig     `json:"logging"`
	Lanes      []LaneConfig      `json:"lanes"`
	Vehicles   []PlacementConfig `json:"vehicles"`
	Spawn      SpawnConfig       `json:"spawn"`
	Output     OutputConfig      `json:"output"`
}

// SimulationConfig 保存模拟相关的配置项
type SimulationConfig struct {
	Steps          int     `json:"steps"`          // 模拟的时间步数
	Seed           uint64  `json:"seed"`           // 随机种子，0表示使用当前时间
	Workers        int     `json:"workers"`        // 并行推进车道的协程数，<=0表示GOMAXPROCS
	SecondsPerTick float64 `json:"secondsPerTick"` // 一个时间步对应的秒数，仅用于日志显示
}

// LaneConfig 保存车道相关的配置项
type LaneConfig struct {
	Length float64 `json:"length"`
	// 是否为环形车道（越过终点回到起点），默认开放车道
	Circular bool `json:"circular"`
	// 开放车道上越过终点的车辆是否移出车道
	RemoveAtEnd bool `json:"removeAtEnd"`
}

// VehicleTemplate 描述一类车辆的驾驶参数
type VehicleTemplate struct {
	TopSpeed          float64 `json:"topSpeed"`
	Acceleration      float64 `json:"acceleration"`
	FollowDistance    float64 `json:"followDistance"`
	FollowMargin      float64 `json:"followMargin"` // 附加在跟车距离上的安全余量
	LookaheadDistance float64 `json:"lookaheadDistance"`
	InitialSpeed      float64 `json:"initialSpeed"`
}

// EffectiveFollowDistance 返回加上安全余量后的跟车距离
func (t VehicleTemplate) EffectiveFollowDistance() float64 {
	return t.FollowDistance + t.FollowMargin
}

// PlacementConfig 描述模拟开始时放置在车道上的车辆
type PlacementConfig struct {
	Lane     int             `json:"lane"`
	Position float64         `json:"position"`
	Template VehicleTemplate `json:"template"`
}

// SpawnConfig 保存车辆生成相关的配置项
type SpawnConfig struct {
	Enabled  bool    `json:"enabled"`
	Lane     int     `json:"lane"`
	Position float64 `json:"position"`
	// 每个时间步期望生成的车辆数，小数部分作为额外生成一辆车的概率
	Rate float64 `json:"rate"`
	// 随机波动范围 (0-1)
	RandomDisRange float64 `json:"randomDisRange"`
	// 可选的需求曲线CSV（tick,rate），按时间步循环使用，覆盖Rate
	DemandFile string `json:"demandFile"`
	// 需求曲线乘数，每个曲线周期开始时与随机因子一起作用于整条曲线
	DemandMultiplier float64         `json:"demandMultiplier"`
	Template         VehicleTemplate `json:"template"`
}

// LoggingConfig 保存日志记录相关的配置项
type LoggingConfig struct {
	IntervalWriteToLog     int  `json:"intervalWriteToLog"`
	IntervalWriteOtherData int  `json:"intervalWriteOtherData"`
	Render                 bool `json:"render"`      // 是否在日志中输出文本车道
	RenderWidth            int  `json:"renderWidth"` // 文本车道宽度（字符数）
}

// OutputConfig 保存数据输出相关的配置项
type OutputConfig struct {
	Dir           string `json:"dir"`
	Trace         bool   `json:"trace"`
	TraceInterval int    `json:"traceInterval"`
}

var globalConfig *Config

// LoadConfig loads configuration from the specified JSON file
func LoadConfig(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	config, err := Parse(data)
	if err != nil {
		return fmt.Errorf("config %s: %w", filename, err)
	}

	globalConfig = config
	return nil
}

// GetConfig returns the global configuration instance
func GetConfig() *Config {
	return globalConfig
}

// Parse 解析JSON配置，补全默认值并校验
func Parse(data []byte) (*Config, error) {
	config := &Config{}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyDefaults() {
	// 设置模拟参数的默认值
	if c.Simulation.Steps <= 0 {
		c.Simulation.Steps = 1000
	}
	if c.Simulation.SecondsPerTick <= 0 {
		c.Simulation.SecondsPerTick = 1.0
	}

	// 没有配置车道时使用一条800长的开放车道
	if len(c.Lanes) == 0 {
		c.Lanes = []LaneConfig{{Length: 800}}
	}

	if c.Spawn.DemandMultiplier <= 0 {
		c.Spawn.DemandMultiplier = 1.0
	}

	// 设置日志参数的默认值
	if c.Logging.IntervalWriteToLog <= 0 {
		c.Logging.IntervalWriteToLog = 100
	}
	if c.Logging.IntervalWriteOtherData <= 0 {
		c.Logging.IntervalWriteOtherData = 100
	}
	if c.Logging.RenderWidth <= 0 {
		c.Logging.RenderWidth = 100
	}

	// 设置输出参数的默认值
	if c.Output.Dir == "" {
		c.Output.Dir = "./data"
	}
	if c.Output.TraceInterval <= 0 {
		c.Output.TraceInterval = 1 // 默认每个时间步记录
	}
}

// Validate 检查配置是否合法
func (c *Config) Validate() error {
	var errs []error

	for i, lane := range c.Lanes {
		if lane.Length <= 0 {
			errs = append(errs, fmt.Errorf("lanes[%d]: length must be positive, got %v", i, lane.Length))
		}
		if lane.Circular && lane.RemoveAtEnd {
			errs = append(errs, fmt.Errorf("lanes[%d]: removeAtEnd has no effect on a circular lane", i))
		}
	}

	for i, v := range c.Vehicles {
		if v.Lane < 0 || v.Lane >= len(c.Lanes) {
			errs = append(errs, fmt.Errorf("vehicles[%d]: lane %d out of range", i, v.Lane))
		} else if err := c.Lanes[v.Lane].checkPosition(v.Position); err != nil {
			errs = append(errs, fmt.Errorf("vehicles[%d]: %w", i, err))
		}
		if err := v.Template.validate(); err != nil {
			errs = append(errs, fmt.Errorf("vehicles[%d]: %w", i, err))
		}
	}

	if c.Spawn.Enabled {
		if c.Spawn.Lane < 0 || c.Spawn.Lane >= len(c.Lanes) {
			errs = append(errs, fmt.Errorf("spawn: lane %d out of range", c.Spawn.Lane))
		} else if err := c.Lanes[c.Spawn.Lane].checkPosition(c.Spawn.Position); err != nil {
			errs = append(errs, fmt.Errorf("spawn: %w", err))
		}
		if c.Spawn.Rate < 0 {
			errs = append(errs, fmt.Errorf("spawn: rate must be non-negative, got %v", c.Spawn.Rate))
		}
		if c.Spawn.RandomDisRange < 0 || c.Spawn.RandomDisRange > 1 {
			errs = append(errs, fmt.Errorf("spawn: randomDisRange must be between 0 and 1, got %v", c.Spawn.RandomDisRange))
		}
		if err := c.Spawn.Template.validate(); err != nil {
			errs = append(errs, fmt.Errorf("spawn: %w", err))
		}
	}

	return errors.Join(errs...)
}

// checkPosition 环形车道上的位置必须落在[0, length)内
func (l LaneConfig) checkPosition(position float64) error {
	if l.Circular && (position < 0 || position >= l.Length) {
		return fmt.Errorf("position %v outside circular lane [0, %v)", position, l.Length)
	}
	return nil
}

func (t VehicleTemplate) validate() error {
	switch {
	case t.TopSpeed < 0:
		return fmt.Errorf("topSpeed must be non-negative, got %v", t.TopSpeed)
	case t.EffectiveFollowDistance() < 0:
		return fmt.Errorf("followDistance plus followMargin must be non-negative, got %v", t.EffectiveFollowDistance())
	case t.LookaheadDistance < 0:
		return fmt.Errorf("lookaheadDistance must be non-negative, got %v", t.LookaheadDistance)
	case t.InitialSpeed < 0:
		return fmt.Errorf("initialSpeed must be non-negative, got %v", t.InitialSpeed)
	}
	return nil
}
