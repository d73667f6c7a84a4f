package tally

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Veraticus/precinct-atlas/internal/common"
	"github.com/Veraticus/precinct-atlas/internal/contest"
	"github.com/Veraticus/precinct-atlas/internal/model"
)

// ballotLineSuffix matches trailing parenthetical ballot-line annotations,
// e.g. "Zohran Kwame Mamdani (Working Families)". Everything from the first
// "(" through the final ")" is one match.
var ballotLineSuffix = regexp.MustCompile(`\s*\(.*\)\s*$`)

// Result holds the three record sets produced from one export.
type Result struct {
	Candidates  []model.CandidateVoteRecord
	BallotTypes []model.BallotTypeRecord
	Merged      []model.MergedDistrictRecord
	Dropped     model.DroppedStats
}

// TotalVotes sums every vote the result accounts for, including dropped
// choices. For well-formed input it equals the raw export's total.
func (r *Result) TotalVotes() int {
	total := r.Dropped.Votes
	for _, c := range r.Candidates {
		total += c.VoteCount
	}
	for _, b := range r.BallotTypes {
		total += b.VoteCount
	}
	for _, m := range r.Merged {
		total += m.VoteCount
	}
	return total
}

type parsedRow struct {
	county string
	note   string
	choice string
	ad     int
	ed     int
	votes  int
}

type groupKey struct {
	county string
	choice string
	ad     int
	ed     int
}

type groupTotal struct {
	votes int
	rows  int
}

type mergedKey struct {
	county string
	note   string
	ad     int
	ed     int
}

// Normalize converts raw tally rows for one contest into candidate votes,
// ballot-type votes and the merged-district audit table. It fails on the first
// malformed numeric field or merged-district note.
func Normalize(records []model.RawTallyRecord, c contest.Contest) (*Result, error) {
	rows := make([]parsedRow, 0, len(records))
	for _, rec := range records {
		row, err := parseRow(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	result := &Result{}

	merged, err := extractMerged(rows)
	if err != nil {
		return nil, err
	}
	result.Merged = merged

	grouped := make(map[groupKey]groupTotal)
	for _, row := range rows {
		if row.note != InPlayNote {
			continue
		}
		key := groupKey{ad: row.ad, ed: row.ed, county: row.county, choice: StripBallotLine(row.choice)}
		total := grouped[key]
		total.votes += row.votes
		total.rows++
		grouped[key] = total
	}

	candidates := make(map[groupKey]int)
	dropped := make(map[string]bool)
	for key, total := range grouped {
		votes := total.votes
		switch {
		case c.IsBallotType(key.choice):
			result.BallotTypes = append(result.BallotTypes, model.BallotTypeRecord{
				ElectDist:        model.NewElectDist(key.ad, key.ed),
				AssemblyDistrict: key.ad,
				ElectionDistrict: key.ed,
				County:           key.county,
				VoteChoice:       key.choice,
				VoteCount:        votes,
			})
		case c.IsCandidate(key.choice):
			canonical := key
			canonical.choice = c.Canonical(key.choice)
			candidates[canonical] += votes
		default:
			result.Dropped.Rows += total.rows
			result.Dropped.Votes += votes
			dropped[key.choice] = true
		}
	}

	for key, votes := range candidates {
		result.Candidates = append(result.Candidates, model.CandidateVoteRecord{
			ElectDist:        model.NewElectDist(key.ad, key.ed),
			AssemblyDistrict: key.ad,
			ElectionDistrict: key.ed,
			County:           key.county,
			VoteChoice:       key.choice,
			VoteCount:        votes,
		})
	}

	sortCandidates(result.Candidates, c.CanonicalRoster())
	sortBallotTypes(result.BallotTypes, c.BallotTypes())

	for choice := range dropped {
		result.Dropped.Choices = append(result.Dropped.Choices, choice)
	}
	sort.Strings(result.Dropped.Choices)

	if result.Dropped.Rows > 0 {
		slog.Warn("Dropped unrecognized vote choices",
			"contest", c.Key(),
			"rows", result.Dropped.Rows,
			"votes", result.Dropped.Votes,
			"choices", result.Dropped.Choices)
	}

	slog.Info("Normalized tally",
		"contest", c.Key(),
		"raw_rows", len(records),
		"candidate_rows", len(result.Candidates),
		"ballot_type_rows", len(result.BallotTypes),
		"merged_districts", len(result.Merged))

	return result, nil
}

// StripBallotLine removes trailing parenthetical ballot-line annotations.
func StripBallotLine(choice string) string {
	return strings.TrimSpace(ballotLineSuffix.ReplaceAllString(choice, ""))
}

// ParseVoteCount parses a vote count that may carry thousands separators.
func ParseVoteCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative vote count %d", n)
	}
	return n, nil
}

func parseRow(rec model.RawTallyRecord) (parsedRow, error) {
	line := fmt.Sprintf("line %d", rec.Line)

	ad, err := strconv.Atoi(rec.AssemblyDistrict)
	if err != nil || ad <= 0 {
		return parsedRow{}, common.FormatErrorf("tally", "assembly_district",
			"%s: %q is not a positive integer", line, rec.AssemblyDistrict)
	}
	ed, err := strconv.Atoi(rec.ElectionDistrict)
	if err != nil || ed <= 0 {
		return parsedRow{}, common.FormatErrorf("tally", "election_district",
			"%s: %q is not a positive integer", line, rec.ElectionDistrict)
	}
	votes, err := ParseVoteCount(rec.VoteCount)
	if err != nil {
		return parsedRow{}, common.FormatErrorf("tally", "vote_count",
			"%s: %q: %v", line, rec.VoteCount, err)
	}

	return parsedRow{
		ad:     ad,
		ed:     ed,
		county: rec.County,
		note:   rec.Note,
		choice: rec.VoteChoice,
		votes:  votes,
	}, nil
}

func extractMerged(rows []parsedRow) ([]model.MergedDistrictRecord, error) {
	index := make(map[mergedKey]int)
	var merged []model.MergedDistrictRecord

	for _, row := range rows {
		if row.note == InPlayNote {
			continue
		}
		key := mergedKey{ad: row.ad, ed: row.ed, county: row.county, note: row.note}
		if i, ok := index[key]; ok {
			merged[i].VoteCount += row.votes
			continue
		}

		reportedAD, reportedED, err := ParseMergedNote(row.note)
		if err != nil {
			return nil, common.NewStageError("tally", "note",
				fmt.Errorf("district %s: %w", model.NewElectDist(row.ad, row.ed), err))
		}

		index[key] = len(merged)
		merged = append(merged, model.MergedDistrictRecord{
			SourceAD:   row.ad,
			SourceED:   row.ed,
			County:     row.county,
			Note:       row.note,
			ReportedAD: reportedAD,
			ReportedED: reportedED,
			VoteCount:  row.votes,
		})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].SourceElectDist() != merged[j].SourceElectDist() {
			return merged[i].SourceElectDist() < merged[j].SourceElectDist()
		}
		return merged[i].County < merged[j].County
	})
	return merged, nil
}

func rank(order []string) map[string]int {
	m := make(map[string]int, len(order))
	for i, name := range order {
		m[name] = i
	}
	return m
}

func sortCandidates(records []model.CandidateVoteRecord, roster []string) {
	pos := rank(roster)
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.ElectDist != b.ElectDist {
			return a.ElectDist < b.ElectDist
		}
		if a.County != b.County {
			return a.County < b.County
		}
		return pos[a.VoteChoice] < pos[b.VoteChoice]
	})
}

func sortBallotTypes(records []model.BallotTypeRecord, labels []string) {
	pos := rank(labels)
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.ElectDist != b.ElectDist {
			return a.ElectDist < b.ElectDist
		}
		if a.County != b.County {
			return a.County < b.County
		}
		return pos[a.VoteChoice] < pos[b.VoteChoice]
	})
}
