package domain

// Targeting describes where a campaign serves.
type Targeting struct {
	Countries []string `json:"countries"`
	AdFormat  string   `json:"ad_format"`
}
