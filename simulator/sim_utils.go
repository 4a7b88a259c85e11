package simulator

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"laneCA/log"
	"laneCA/recorder"
)

// DataFiles 保存输出CSV文件路径
// Trace为空时不写轨迹数据
type DataFiles struct {
	System  string
	Vehicle string
	Trace   string
}

// NewDataFiles 根据输出目录和文件名前缀生成CSV文件路径
func NewDataFiles(dir, prefix string, trace bool) DataFiles {
	files := DataFiles{
		System:  filepath.Join(dir, fmt.Sprintf("%s_SystemData.csv", prefix)),
		Vehicle: filepath.Join(dir, fmt.Sprintf("%s_VehicleData.csv", prefix)),
	}
	if trace {
		files.Trace = filepath.Join(dir, fmt.Sprintf("%s_TraceData.csv", prefix))
	}
	return files
}

// InitDataFiles 创建CSV文件并写入表头
func InitDataFiles(files DataFiles) error {
	errs := []error{
		recorder.InitSystemDataCSV(files.System),
		recorder.InitVehicleDataCSV(files.Vehicle),
	}
	if files.Trace != "" {
		errs = append(errs, recorder.InitTraceDataCSV(files.Trace))
	}
	return errors.Join(errs...)
}

// WriteData 同步写入系统、车辆和轨迹数据
// 某一类数据写入失败不影响其他数据的写入
func WriteData(files DataFiles) error {
	errs := []error{
		recorder.WriteToSystemDataCSV(files.System),
		recorder.WriteToVehicleDataCSV(files.Vehicle),
	}
	if files.Trace != "" {
		errs = append(errs, recorder.WriteToTraceDataCSV(files.Trace))
	}

	// 手动触发垃圾回收以减少内存占用
	runtime.GC()
	return errors.Join(errs...)
}

// FinishSimulation 完成模拟，写入最后的数据
// 记录写入操作的时间消耗
func FinishSimulation(files DataFiles) error {
	log.WriteLog("Writing final data...")

	startTime := time.Now()
	err := WriteData(files)
	if err != nil {
		log.WriteLogf("Final data write failed: %v", err)
		return err
	}

	log.WriteLogf("Final data write completed in %v", time.Since(startTime))
	return nil
}
