package csv

import (
	"bufio"
	"bytes"
	"unicode/utf8"
)

var DefaultDelimitersToCheck = []rune{',', ';', '\t', ' ', '|'}

// DeduceFieldDelimiter picks the delimiter that occurs most consistently across the first lines of
// the given data. A delimiter that appears the same number of times on every line beats one whose
// count varies; among equally consistent candidates, the most frequent one wins.
func DeduceFieldDelimiter(data []byte, maxLinesToCheck int, delimitersToCheck []rune) rune {
	if len(delimitersToCheck) == 0 {
		delimitersToCheck = DefaultDelimitersToCheck
	}

	candidates := make([]delimiterCandidate, len(delimitersToCheck))
	for i, delimiter := range delimitersToCheck {
		candidates[i] = delimiterCandidate{delimiter: delimiter, highestCount: -1, lowestCount: -1}
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for i := 0; i < maxLinesToCheck && scanner.Scan(); i++ {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		for j := range candidates {
			candidates[j].countIn(line)
		}
	}

	best := candidates[0]
	for _, candidate := range candidates[1:] {
		if candidate.beats(best) {
			best = candidate
		}
	}
	return best.delimiter
}

type delimiterCandidate struct {
	delimiter    rune
	highestCount int
	lowestCount  int
}

func (candidate *delimiterCandidate) countIn(line []byte) {
	var encoded [utf8.UTFMax]byte
	size := utf8.EncodeRune(encoded[:], candidate.delimiter)
	count := bytes.Count(line, encoded[:size])

	if candidate.highestCount == -1 || candidate.highestCount < count {
		candidate.highestCount = count
	}
	if candidate.lowestCount == -1 || candidate.lowestCount > count {
		candidate.lowestCount = count
	}
}

func (candidate delimiterCandidate) consistent() bool {
	return candidate.highestCount > 0 && candidate.highestCount == candidate.lowestCount
}

func (candidate delimiterCandidate) beats(best delimiterCandidate) bool {
	switch {
	case candidate.consistent() && !best.consistent():
		return true
	case !candidate.consistent() && best.consistent():
		return false
	case candidate.consistent() && best.consistent():
		return candidate.highestCount > best.highestCount
	default:
		// Neither is consistent: prefer a delimiter present on every line
		if (candidate.lowestCount > 0) != (best.lowestCount > 0) {
			return candidate.lowestCount > 0
		}
		return candidate.highestCount > best.highestCount
	}
}
