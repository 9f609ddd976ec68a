package domain

// SourceType is the coarse classification of a referrer origin.
type SourceType string

const (
	SourceSocial SourceType = "social"
	SourceSearch SourceType = "search"
	SourceDirect SourceType = "direct"
	SourceOther  SourceType = "other"
)

// ReferrerLog is derived from a referrer URL; the same URL always yields the same record.
type ReferrerLog struct {
	ReferrerURL  string     `json:"referrerUrl"`
	SourceDomain string     `json:"sourceDomain"`
	SourceType   SourceType `json:"sourceType"`
}
