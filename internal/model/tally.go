package model

// RawTallyRecord is one positional row of the upstream tally export. Fields
// are kept as text; the normalizer owns type conversion.
type RawTallyRecord struct {
	AssemblyDistrict string
	ElectionDistrict string
	County           string
	Note             string
	VoteChoice       string
	VoteCount        string
	Line             int
}

// CandidateVoteRecord is the summed vote count for one canonical candidate in
// one electoral district.
type CandidateVoteRecord struct {
	County           string
	VoteChoice       string
	ElectDist        ElectDist
	AssemblyDistrict int
	ElectionDistrict int
	VoteCount        int
}

// BallotTypeRecord is the summed count for one administrative ballot type
// (absentee, affidavit, ...) in one electoral district.
type BallotTypeRecord struct {
	County           string
	VoteChoice       string
	ElectDist        ElectDist
	AssemblyDistrict int
	ElectionDistrict int
	VoteCount        int
}

// MergedDistrictRecord describes a district whose votes were folded into
// another district's totals by the upstream source. It is an audit record: the
// pipeline reports it but never re-applies it to totals.
type MergedDistrictRecord struct {
	County     string
	Note       string
	SourceAD   int
	SourceED   int
	ReportedAD int
	ReportedED int
	VoteCount  int
}

// SourceElectDist is the key of the reporting district.
func (m MergedDistrictRecord) SourceElectDist() ElectDist {
	return NewElectDist(m.SourceAD, m.SourceED)
}

// ReportedElectDist is the key of the district that absorbed the votes.
func (m MergedDistrictRecord) ReportedElectDist() ElectDist {
	return NewElectDist(m.ReportedAD, m.ReportedED)
}

// DroppedStats counts in-play rows whose vote choice matched neither the
// candidate roster nor the ballot-type labels.
type DroppedStats struct {
	Choices []string
	Rows    int
	Votes   int
}
