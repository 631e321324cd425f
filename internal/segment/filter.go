package segment

// Filter decides whether a candidate region is an acceptable nucleus. Every
// threshold is optional; a zero value disables that check. All comparisons
// are strict: a region exactly at MaxArea or MinSolidity is rejected.
type Filter struct {
	MaxArea         int
	MaxEccentricity float64
	MaxBBoxArea     int
	MinSolidity     float64
}

// Accept reports whether the region passes every configured threshold.
func (f Filter) Accept(r *Region) bool {
	if f.MaxArea > 0 && r.Area >= f.MaxArea {
		return false
	}
	if f.MaxEccentricity > 0 && r.Eccentricity >= f.MaxEccentricity {
		return false
	}
	if f.MaxBBoxArea > 0 && r.Width()*r.Height() >= f.MaxBBoxArea {
		return false
	}
	if f.MinSolidity > 0 && r.Solidity <= f.MinSolidity {
		return false
	}
	return true
}
