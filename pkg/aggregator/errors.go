package aggregator

import "errors"

var (
	ErrNoReports            = errors.New("no reports provided for aggregation")
	ErrZeroSamples          = errors.New("total sample count is zero")
	ErrNegativeStaleness    = errors.New("negative staleness: aggregation scheduled before download")
	ErrUnknownStalenessFunc = errors.New("unknown staleness function")
	ErrMixingRate           = errors.New("mixing rate alpha must be in (0, 1]")
)
