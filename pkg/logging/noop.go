package logging

// NoOpLogger discards everything. Handy in tests that don't assert on logs.
type NoOpLogger struct{}

var _ Logger = NoOpLogger{}

func NewNoOpLogger() Logger { return NoOpLogger{} }

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}
func (NoOpLogger) Fatal(string, ...any) {}

func (NoOpLogger) Debugf(string, ...interface{}) {}
func (NoOpLogger) Infof(string, ...interface{})  {}
func (NoOpLogger) Warnf(string, ...interface{})  {}
func (NoOpLogger) Errorf(string, ...interface{}) {}
func (NoOpLogger) Fatalf(string, ...interface{}) {}

func (l NoOpLogger) With(...any) Logger { return l }
