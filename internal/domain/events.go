package domain

import "time"

// StatusMessage is the body published to the status fanout exchange.
type StatusMessage struct {
	Source    string    `json:"source"`
	Snapshot  Snapshot  `json:"snapshot"`
	Published time.Time `json:"published_at"`
}
