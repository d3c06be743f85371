package logging

const (
	BaseDataDir = "data"
	LogsDir     = "logs"
	LogFileName = "service.log"
	TimeFormat  = "2006-01-02 15:04:05"
)

type ProcessName string

const (
	AutobuyProcess ProcessName = "autobuy"
	TestProcess    ProcessName = "test"
)

type LoggerConfig struct {
	LogDir        string
	ProcessName   ProcessName
	IsDevelopment bool
	MaxSizeMB     int
	MaxBackups    int
}

func NewDefaultConfig(processName ProcessName) LoggerConfig {
	return LoggerConfig{
		LogDir:        BaseDataDir,
		ProcessName:   processName,
		IsDevelopment: true,
		MaxSizeMB:     50,
		MaxBackups:    10,
	}
}
