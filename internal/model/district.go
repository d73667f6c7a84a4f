// Package model defines the records that flow between pipeline stages.
package model

import "fmt"

// ElectDist is the synthetic electoral district key: assembly district * 1000
// plus election district.
type ElectDist int

// NewElectDist builds the key for an assembly/election district pair.
func NewElectDist(assemblyDistrict, electionDistrict int) ElectDist {
	return ElectDist(assemblyDistrict*1000 + electionDistrict)
}

// AssemblyDistrict returns the assembly district component.
func (e ElectDist) AssemblyDistrict() int {
	return int(e) / 1000
}

// ElectionDistrict returns the election district component.
func (e ElectDist) ElectionDistrict() int {
	return int(e) % 1000
}

func (e ElectDist) String() string {
	return fmt.Sprintf("%05d", int(e))
}

// Counties lists the five counties in the fixed order used for every
// county-keyed output.
var Counties = []string{"New York", "Kings", "Queens", "Bronx", "Richmond"}

// BoroughName returns the display name for a county, or the county itself
// when it is not one of the five.
func BoroughName(county string) string {
	switch county {
	case "New York":
		return "Manhattan"
	case "Kings":
		return "Brooklyn"
	case "Richmond":
		return "Staten Island"
	default:
		return county
	}
}

// CountyIndex returns the position of county in Counties, or -1.
func CountyIndex(county string) int {
	for i, c := range Counties {
		if c == county {
			return i
		}
	}
	return -1
}
