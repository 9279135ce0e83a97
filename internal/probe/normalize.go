package probe

import "sort"

// Normalize deduplicates and orders raw capability entries into the
// canonical form the selector depends on: one entry per (format, width,
// height) with merged framerates, entries sorted by format priority, then
// resolution descending, then best framerate descending. The ordering is
// total, so equal inputs always normalize identically.
func Normalize(caps []Capability) []Capability {
	type key struct {
		format PixelFormat
		width  uint32
		height uint32
	}

	merged := make(map[key][]Rate)
	order := make([]key, 0, len(caps))

	for _, c := range caps {
		k := key{c.Format, c.Width, c.Height}
		if _, seen := merged[k]; !seen {
			order = append(order, k)
		}
		merged[k] = append(merged[k], c.Rates...)
	}

	result := make([]Capability, 0, len(order))
	for _, k := range order {
		result = append(result, Capability{
			Format: k.format,
			Width:  k.width,
			Height: k.height,
			Rates:  dedupeRates(merged[k]),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if pa, pb := a.Format.PriorityIndex(), b.Format.PriorityIndex(); pa != pb {
			return pa < pb
		}
		if a.Width != b.Width {
			return a.Width > b.Width
		}
		if a.Height != b.Height {
			return a.Height > b.Height
		}
		return a.BestRate().FPS() > b.BestRate().FPS()
	})

	return result
}

// dedupeRates removes duplicate framerates and sorts descending by FPS.
// Rationals are compared exactly via cross-multiplication so 30000/1001
// and 30/1 stay distinct.
func dedupeRates(rates []Rate) []Rate {
	seen := make(map[Rate]struct{}, len(rates))
	out := make([]Rate, 0, len(rates))
	for _, r := range rates {
		if r.Den == 0 {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		// a.Num/a.Den > b.Num/b.Den without float drift
		return uint64(out[i].Num)*uint64(out[j].Den) > uint64(out[j].Num)*uint64(out[i].Den)
	})

	return out
}
