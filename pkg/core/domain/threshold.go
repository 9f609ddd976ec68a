package domain

import "time"

// ThresholdStatus describes the log volume relative to the notification threshold.
type ThresholdStatus struct {
	TotalEntries     int64      `json:"totalEntries"`
	PageCount        int64      `json:"pageCount"`
	ThresholdReached bool       `json:"thresholdReached"`
	NotifiedAt       *time.Time `json:"notifiedAt"`
}
