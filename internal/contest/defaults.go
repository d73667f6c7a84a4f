package contest

var sharedBallotTypes = []string{
	"Public Counter",
	"Absentee / Military",
	"Affidavit",
	"Manually Counted Emergency",
}

// Mayor is the 2025 New York City mayoral general election.
func Mayor() Definition {
	return Definition{
		Key:    "mayor",
		Title:  "2025 Mayoral Election",
		Suffix: "mayor",
		Candidates: []string{
			"Andrew M. Cuomo",
			"Curtis A. Sliwa",
			"Eric L. Adams",
			"Irene Estrada",
			"Jim Walden",
			"Joseph Hernandez",
			"Zohran Kwame Mamdani",
			"Scattered",
		},
		BallotTypes: append([]string(nil), sharedBallotTypes...),
		NameMap: map[string]string{
			"Andrew M. Cuomo":      "Andrew Cuomo",
			"Curtis A. Sliwa":      "Curtis Sliwa",
			"Eric L. Adams":        "Eric Adams",
			"Zohran Kwame Mamdani": "Zohran Mamdani",
		},
	}
}

// President is the 2024 presidential general election, New York City only.
func President() Definition {
	return Definition{
		Key:    "president",
		Title:  "2024 Presidential Election",
		Suffix: "pres",
		Candidates: []string{
			"Donald J. Trump / JD Vance",
			"Kamala D. Harris / Tim Walz",
			"Scattered",
		},
		BallotTypes: append(append([]string(nil), sharedBallotTypes...), "Federal"),
		NameMap: map[string]string{
			"Donald J. Trump / JD Vance":  "Trump",
			"Kamala D. Harris / Tim Walz": "Harris",
		},
	}
}

// DefaultRegistry returns a registry holding the built-in contests.
func DefaultRegistry() *Registry {
	mayor, err := New(Mayor())
	if err != nil {
		panic(err)
	}
	president, err := New(President())
	if err != nil {
		panic(err)
	}
	r, err := NewRegistry(mayor, president)
	if err != nil {
		panic(err)
	}
	return r
}
