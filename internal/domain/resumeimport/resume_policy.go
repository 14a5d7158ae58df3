package resumeimport

import "time"

// ResumePolicy decides when a new batch is treated as the continuation of an
// interrupted in_progress session.
type ResumePolicy struct {
	Window     time.Duration
	SampleSize int
	MinMatches int
	MinRatio   float64
}

func DefaultResumePolicy() ResumePolicy {
	return ResumePolicy{
		Window:     7 * 24 * time.Hour,
		SampleSize: 10,
		MinMatches: 5,
		MinRatio:   0.5,
	}
}

func (p ResumePolicy) normalized() ResumePolicy {
	d := DefaultResumePolicy()
	if p.Window <= 0 {
		p.Window = d.Window
	}
	if p.SampleSize <= 0 {
		p.SampleSize = d.SampleSize
	}
	if p.MinMatches <= 0 {
		p.MinMatches = d.MinMatches
	}
	if p.MinRatio <= 0 {
		p.MinRatio = d.MinRatio
	}
	return p
}

// Sample returns the de-duplicated leading hashes that are checked against a
// prior session.
func (p ResumePolicy) Sample(hashes []string) []string {
	p = p.normalized()
	seen := make(map[string]struct{}, p.SampleSize)
	out := make([]string, 0, p.SampleSize)
	for _, h := range hashes {
		if len(out) == p.SampleSize {
			break
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

// Matches reports whether matched sampled hashes out of a batch of total
// hashes are enough overlap: matched >= min(MinMatches, total*MinRatio).
func (p ResumePolicy) Matches(matched, total int) bool {
	if matched <= 0 || total <= 0 {
		return false
	}
	p = p.normalized()
	threshold := min(float64(p.MinMatches), float64(total)*p.MinRatio)
	return float64(matched) >= threshold
}

// Cutoff is the oldest started_at a resumable session may have.
func (p ResumePolicy) Cutoff(now time.Time) time.Time {
	return now.Add(-p.normalized().Window)
}
