package recorder

import (
	"strconv"
	"sync"
)

// SystemRecord 是一条车道在一个时间步的统计数据
type SystemRecord struct {
	Tick         int
	Lane         int
	Vehicles     int
	AverageSpeed float64
	SpeedStd     float64
	Density      float64
	Stopped      int
	Accelerating int
	Cruising     int
	Braking      int
}

var (
	systemDataCache [][]string = make([][]string, 0)
	systemDataMutex sync.Mutex
)

// RecordSystemData 缓存一条系统数据
func RecordSystemData(r SystemRecord) {
	systemDataMutex.Lock()
	defer systemDataMutex.Unlock()

	systemDataCache = append(systemDataCache, []string{
		strconv.Itoa(r.Tick),
		strconv.Itoa(r.Lane),
		strconv.Itoa(r.Vehicles),
		formatFloat(r.AverageSpeed),
		formatFloat(r.SpeedStd),
		formatFloat(r.Density),
		strconv.Itoa(r.Stopped),
		strconv.Itoa(r.Accelerating),
		strconv.Itoa(r.Cruising),
		strconv.Itoa(r.Braking),
	})
}

func InitSystemDataCSV(filename string) error {
	header := []string{
		"Tick", "Lane", "Vehicles", "AvgSpeed", "SpeedStd", "Density", "Stopped", "Accelerating", "Cruising", "Braking",
	}
	return initializeCSV(filename, header)
}

// WriteToSystemDataCSV 将缓存的系统数据写入文件并清空缓存
func WriteToSystemDataCSV(filename string) error {
	systemDataMutex.Lock()
	defer systemDataMutex.Unlock()
	if len(systemDataCache) == 0 {
		return nil
	}
	if err := appendToCSV(filename, systemDataCache); err != nil {
		return err
	}
	systemDataCache = make([][]string, 0)
	return nil
}
