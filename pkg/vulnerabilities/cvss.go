package vulnerabilities

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	gocvss30 "github.com/pandatix/go-cvss/30"
	gocvss31 "github.com/pandatix/go-cvss/31"
	gocvss40 "github.com/pandatix/go-cvss/40"
)

// ScoreVector computes the base score of a CVSS v3.0, v3.1 or v4.0 vector.
// A bare number in [0, 10] is accepted as an already computed score.
func ScoreVector(vector string) (float64, error) {
	v := strings.TrimSpace(vector)
	switch {
	case strings.HasPrefix(v, "CVSS:3.1/"):
		parsed, err := gocvss31.ParseVector(v)
		if err != nil {
			return 0, fmt.Errorf("parse CVSS 3.1 vector %q: %w", v, err)
		}
		return parsed.BaseScore(), nil
	case strings.HasPrefix(v, "CVSS:3.0/"):
		parsed, err := gocvss30.ParseVector(v)
		if err != nil {
			return 0, fmt.Errorf("parse CVSS 3.0 vector %q: %w", v, err)
		}
		return parsed.BaseScore(), nil
	case strings.HasPrefix(v, "CVSS:4.0/"):
		parsed, err := gocvss40.ParseVector(v)
		if err != nil {
			return 0, fmt.Errorf("parse CVSS 4.0 vector %q: %w", v, err)
		}
		return roundScore(parsed.Score()), nil
	}

	score, err := strconv.ParseFloat(v, 64)
	if err != nil || !ValidCVSS(score) {
		return 0, fmt.Errorf("unsupported CVSS value %q", vector)
	}
	return score, nil
}

func roundScore(s float64) float64 {
	return math.Round(s*10) / 10
}
