// Package scheduler 提供整月排班生成器
package scheduler

// Severity 生成日志行的级别标记
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// LogEntry 生成日志行
// 面向展示层的人类可读文本，不供程序解析。
type LogEntry struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// generationLog 有序日志缓冲
type generationLog struct {
	entries []LogEntry
}

func (l *generationLog) Info(msg string) {
	l.entries = append(l.entries, LogEntry{Severity: SeverityInfo, Message: msg})
}

func (l *generationLog) Warning(msg string) {
	l.entries = append(l.entries, LogEntry{Severity: SeverityWarning, Message: msg})
}

func (l *generationLog) Critical(msg string) {
	l.entries = append(l.entries, LogEntry{Severity: SeverityCritical, Message: msg})
}
