package round

// Record is the append-only time/accuracy trace of one run.
type Record struct {
	T   []float64 `json:"t"`
	Acc []float64 `json:"acc"`
}

// Append adds one (time, accuracy) point. Time must be non-decreasing;
// a step backwards means a scheduling defect upstream.
func (r *Record) Append(t, acc float64) error {
	if len(r.T) > 0 && t < r.T[len(r.T)-1] {
		return ErrTimeWentBack
	}
	r.T = append(r.T, t)
	r.Acc = append(r.Acc, acc)

	return nil
}

func (r *Record) LatestT() (float64, error) {
	if len(r.T) == 0 {
		return 0, ErrEmptyRecord
	}

	return r.T[len(r.T)-1], nil
}

func (r *Record) LatestAcc() (float64, error) {
	if len(r.Acc) == 0 {
		return 0, ErrEmptyRecord
	}

	return r.Acc[len(r.Acc)-1], nil
}

func (r *Record) Len() int {
	return len(r.T)
}

// Clone returns a copy safe to hand outside the control loop.
func (r *Record) Clone() Record {
	out := Record{
		T:   make([]float64, len(r.T)),
		Acc: make([]float64, len(r.Acc)),
	}
	copy(out.T, r.T)
	copy(out.Acc, r.Acc)

	return out
}
