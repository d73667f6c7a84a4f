package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Veraticus/precinct-atlas/internal/aggregate"
	"github.com/Veraticus/precinct-atlas/internal/model"
)

// RenderContestSummary writes citywide and per-borough totals for a contest.
func RenderContestSummary(w io.Writer, s aggregate.ContestSummary) error {
	header := []string{"Area"}
	for _, c := range s.City.Candidates {
		header = append(header, c.Candidate)
	}
	header = append(header, "Total", "Leader")

	areas := append([]aggregate.AreaSummary{s.City}, s.Boroughs...)
	rows := make([][]string, 0, len(areas))
	for _, a := range areas {
		row := []string{a.Name}
		for _, c := range a.Candidates {
			row = append(row, fmt.Sprintf("%s (%s%%)", formatInt(c.Votes), c.Share))
		}
		leader := SubtleStyle.Render("none")
		if l, ok := a.Leader(); ok {
			leader = SuccessStyle.Render(l.Candidate)
		}
		row = append(row, formatInt(a.Total), leader)
		rows = append(rows, row)
	}

	_, err := fmt.Fprint(w, FormatTitle(s.Title)+"\n"+RenderTable(header, rows))
	return err
}

// RenderMerged writes the merged-district audit list.
func RenderMerged(w io.Writer, contest string, merged []model.MergedDistrictRecord) error {
	if len(merged) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo(fmt.Sprintf("%s: no merged districts", contest)))
		return err
	}

	rows := make([][]string, len(merged))
	for i, m := range merged {
		rows[i] = []string{
			m.County,
			m.SourceElectDist().String(),
			m.ReportedElectDist().String(),
			m.Note,
		}
	}
	title := fmt.Sprintf("%s: %d merged districts", contest, len(merged))
	_, err := fmt.Fprint(w, FormatTitle(title)+"\n"+
		RenderTable([]string{"County", "District", "Reported In", "Note"}, rows))
	return err
}

// RenderCounties writes county demographics and any counties that could not be
// fetched.
func RenderCounties(w io.Writer, counties []model.CountyDemographics, missing []string, excluded int) error {
	rows := make([][]string, len(counties))
	for i, c := range counties {
		income := SubtleStyle.Render("n/a")
		if c.HasMedianIncome {
			income = "$" + formatInt(int(c.MedianIncome))
		}
		rows[i] = []string{
			model.BoroughName(c.County),
			strconv.Itoa(c.Tracts),
			income,
			formatPct(c.Education.BachelorsPlus),
			formatPct(c.Race.White),
			formatPct(c.Race.Black),
			formatPct(c.Race.Asian),
			formatPct(c.Race.Hispanic),
			c.MajorityRace,
		}
	}

	var sb strings.Builder
	sb.WriteString(FormatTitle("County demographics"))
	sb.WriteString("\n")
	sb.WriteString(RenderTable([]string{
		"Borough", "Tracts", "Median Income", "Bachelor's+", "White", "Black", "Asian", "Hispanic", "Majority",
	}, rows))
	if len(missing) > 0 {
		sb.WriteString(FormatWarning("Missing counties: " + strings.Join(missing, ", ")))
		sb.WriteString("\n")
	}
	if excluded > 0 {
		sb.WriteString(FormatInfo(fmt.Sprintf("%d tracts excluded for missing population", excluded)))
		sb.WriteString("\n")
	}
	_, err := fmt.Fprint(w, sb.String())
	return err
}

// RenderReport writes a short summary of a completed build.
func RenderReport(w io.Writer, report *model.Report) error {
	var lines []string
	lines = append(lines, fmt.Sprintf("Districts: %d", len(report.Table.Rows)))
	for _, c := range report.Contests {
		lines = append(lines, fmt.Sprintf("%s: %d candidate rows, %d merged, %d dropped votes, %d without boundary",
			c.Key, len(c.Candidates), len(c.Merged), c.Dropped.Votes, c.Unmatched))
	}
	if len(report.Counties) > 0 {
		lines = append(lines, fmt.Sprintf("Counties with demographics: %d", len(report.Counties)))
	}

	content := strings.Join(lines, "\n")
	if len(report.MissingCounties) > 0 {
		content += "\n" + FormatWarning("Missing counties: "+strings.Join(report.MissingCounties, ", "))
	}
	_, err := fmt.Fprintln(w, RenderBox(MapIcon+" Build complete", content))
	return err
}

// RenderRuns lists stored runs, newest first.
func RenderRuns(w io.Writer, runs []model.RunInfo) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No runs stored yet"))
		return err
	}
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			strings.Join(r.Contests, ", "),
			strconv.Itoa(r.Districts),
		}
	}
	_, err := fmt.Fprint(w, RenderTable([]string{"Run", "Created", "Contests", "Districts"}, rows))
	return err
}

func formatPct(v float64) string {
	return strconv.FormatFloat(model.Round2(v), 'f', 1, 64) + "%"
}

// formatInt renders n with thousands separators.
func formatInt(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var out []byte
	for i := range len(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// RenderCountyVotes writes one assembly district table per county. Counties
// without votes are skipped.
func RenderCountyVotes(w io.Writer, tables []aggregate.CountyVoteTable) error {
	for _, t := range tables {
		if len(t.Rows) == 0 {
			continue
		}
		header := append([]string{"AD"}, t.Candidates...)
		header = append(header, "Total")
		rows := make([][]string, len(t.Rows))
		for i, r := range t.Rows {
			row := []string{strconv.Itoa(r.AssemblyDistrict)}
			for _, v := range r.Votes {
				row = append(row, formatInt(v))
			}
			rows[i] = append(row, formatInt(r.Total))
		}
		if _, err := fmt.Fprint(w, FormatTitle(model.BoroughName(t.County))+"\n"+RenderTable(header, rows)); err != nil {
			return err
		}
	}
	return nil
}
