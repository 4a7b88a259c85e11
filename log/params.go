package log

import (
	"laneCA/config"
)

// LogSimParameters 记录模拟参数
func LogSimParameters(cfg *config.Config) {
	WriteLogf("Steps: %d, Seed: %d, Workers: %d, SecondsPerTick: %.2f",
		cfg.Simulation.Steps, cfg.Simulation.Seed, cfg.Simulation.Workers, cfg.Simulation.SecondsPerTick)

	for i, lane := range cfg.Lanes {
		WriteLogf("Lane %d: length %.1f, circular %v, removeAtEnd %v", i, lane.Length, lane.Circular, lane.RemoveAtEnd)
	}
	WriteLogf("Initial vehicles: %d", len(cfg.Vehicles))

	if cfg.Spawn.Enabled {
		t := cfg.Spawn.Template
		WriteLogf("Spawn: lane %d at %.1f, rate %.3f (±%.2f), demand file %q x%.2f",
			cfg.Spawn.Lane, cfg.Spawn.Position, cfg.Spawn.Rate, cfg.Spawn.RandomDisRange, cfg.Spawn.DemandFile, cfg.Spawn.DemandMultiplier)
		WriteLogf("Spawn template: topSpeed %.2f, acceleration %.2f, followDistance %.2f+%.2f, lookahead %.2f",
			t.TopSpeed, t.Acceleration, t.FollowDistance, t.FollowMargin, t.LookaheadDistance)
	} else {
		WriteLog("Spawn: disabled")
	}
}
