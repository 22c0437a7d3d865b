package client

import "github.com/absmach/fedsim/pkg/model"

// Report is the immutable result of one client's local round.
type Report struct {
	ClientID     string        `json:"client_id"`
	ClientName   string        `json:"client_name"`
	Weights      model.Weights `json:"weights"`
	NumSamples   int           `json:"num_samples"`
	Accuracy     float64       `json:"accuracy"`
	DownloadTime float64       `json:"download_time,omitempty"`
}
