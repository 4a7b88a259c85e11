package simulator

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

// ErrEmptyDemand 需求曲线文件中没有数据
var ErrEmptyDemand = errors.New("demand profile has no data")

type demandPoint struct {
	tick int
	rate float64
}

// ReadDemandCSV 从CSV文件读取生成率曲线
//
// 文件格式:
//
//	第一行为标题 tick,rate
//	之后每行包含时间步和该时间步每步期望生成的车辆数
//
// 返回按tick排序后的生成率列表，模拟时按时间步循环使用
func ReadDemandCSV(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open demand file: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read demand file %s: %w", filename, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s: %w", filename, ErrEmptyDemand)
	}

	points := make([]demandPoint, 0, len(records)-1)
	for i, record := range records[1:] {
		line := i + 2
		if len(record) < 2 {
			return nil, fmt.Errorf("%s line %d: expected tick,rate", filename, line)
		}
		tick, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: parse tick: %w", filename, line, err)
		}
		rate, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: parse rate: %w", filename, line, err)
		}
		points = append(points, demandPoint{tick: tick, rate: rate})
	}

	slices.SortStableFunc(points, func(a, b demandPoint) int {
		return a.tick - b.tick
	})
	demand := make([]float64, len(points))
	for i, p := range points {
		demand[i] = p.rate
	}

	if floats.HasNaN(demand) || floats.Min(demand) < 0 {
		return nil, fmt.Errorf("%s: rates must be non-negative numbers", filename)
	}
	return demand, nil
}

// AdjustDemand 按倍数缩放生成率曲线并叠加随机波动
//
// 公式: adjusted = raw * multiplier * (1 + random_factor)
// 其中 random_factor 在 [-randomDis, +randomDis] 范围内，整条曲线共用一个随机因子
func AdjustDemand(raw []float64, multiplier, randomDis float64, rng *rand.Rand) []float64 {
	randomDis = math.Max(0, math.Min(1, randomDis)) // 限制在 0-1 范围内

	adjusted := slices.Clone(raw)
	floats.Scale(multiplier*randomFactor(rng, randomDis), adjusted)

	// 确保调整后的需求非负
	for i := range adjusted {
		adjusted[i] = math.Max(0, adjusted[i])
	}
	return adjusted
}

// GetGenerateVehicleCount 根据期望生成率计算本时间步应生成的车辆数量
//
// 算法:
//  1. 应用随机波动到基础生成率
//  2. 取整数部分作为基础车辆数
//  3. 剩余小数部分作为生成额外车辆的概率
func GetGenerateVehicleCount(rate, randomDis float64, rng *rand.Rand) int {
	randomDis = math.Max(0, math.Min(1, randomDis))

	baseDemand := math.Max(0, rate*randomFactor(rng, randomDis))
	baseN := math.Floor(baseDemand)

	// 使用小数部分作为生成额外车辆的概率
	if rng.Float64() < baseDemand-baseN {
		baseN++
	}
	return int(baseN)
}

// randomFactor 生成范围在 [1-randomDis, 1+randomDis] 的随机因子
func randomFactor(rng *rand.Rand, randomDis float64) float64 {
	return 1 + (rng.Float64()*2*randomDis - randomDis)
}
