package simulation

import "sort"

// Rank orders records finished-first, then unfinished by descending total
// progress and finished by ascending total time. The sort is stable, so equal
// records keep their input order. Ranks are written back 1-based.
func Rank(records []*Progress) []*Progress {
	out := make([]*Progress, 0, len(records))
	for _, p := range records {
		if p != nil {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Finished != b.Finished {
			return a.Finished
		}
		if a.Finished {
			return a.TotalTime < b.TotalTime
		}
		return a.TotalProgress > b.TotalProgress
	})
	for i, p := range out {
		p.Rank = i + 1
	}
	return out
}
