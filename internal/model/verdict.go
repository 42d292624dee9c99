package model

// ScamVerdict is the classifier's decision for a single message. It is
// recomputed for every message and never stored.
type ScamVerdict struct {
	IsScam     bool     `json:"scam"`
	Confidence float64  `json:"confidence"`
	Matches    []string `json:"matches,omitempty"`
}
