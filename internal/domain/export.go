package domain

import "time"

// Artifact is the downloadable snapshot produced by an export.
type Artifact struct {
	ExportTime time.Time  `json:"exportTime" yaml:"exportTime"`
	TotalLogs  int        `json:"totalLogs" yaml:"totalLogs"`
	Sessions   []Session  `json:"sessions" yaml:"sessions"`
	Logs       []LogEvent `json:"logs" yaml:"logs"`
}
