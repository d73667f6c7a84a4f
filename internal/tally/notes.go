package tally

import (
	"fmt"
	"strconv"

	"github.com/Veraticus/precinct-atlas/internal/common"
)

// ParseMergedNote extracts the destination district from a merged-district
// note. The last five characters encode it: two digits of election district,
// one separator, two digits of assembly district.
func ParseMergedNote(note string) (reportedAD, reportedED int, err error) {
	if len(note) < 5 {
		return 0, 0, fmt.Errorf("%w: note %q is shorter than 5 characters", common.ErrFormat, note)
	}

	edText := note[len(note)-5 : len(note)-3]
	adText := note[len(note)-2:]

	reportedED, err = parseTwoDigits(edText)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: note %q: election district %q", common.ErrFormat, note, edText)
	}
	reportedAD, err = parseTwoDigits(adText)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: note %q: assembly district %q", common.ErrFormat, note, adText)
	}
	return reportedAD, reportedED, nil
}

func parseTwoDigits(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}
