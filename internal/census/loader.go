package census

import (
	"context"
	"fmt"

	"github.com/Veraticus/precinct-atlas/internal/common"
	"github.com/Veraticus/precinct-atlas/internal/model"
)

// Result is the demographic half of a pipeline run.
type Result struct {
	Tracts   []model.DemographicRecord
	Counties []model.CountyDemographics
	Missing  []string
	Excluded int
}

// Load fetches every county, normalizes the tracts and aggregates them to
// county level.
func (c *Client) Load(ctx context.Context) (*Result, error) {
	fetched, err := c.FetchAll(ctx)
	if err != nil {
		return nil, common.NewStageError("census", "", err)
	}

	tracts, excluded := Normalize(fetched.Rows, c.cfg.Dictionary)
	if len(tracts) == 0 {
		return nil, common.NewStageError("census", "",
			fmt.Errorf("%w: all %d survey units were excluded", common.ErrDataUnavailable, excluded))
	}

	return &Result{
		Tracts:   tracts,
		Counties: AggregateByCounty(tracts),
		Missing:  fetched.Missing,
		Excluded: excluded,
	}, nil
}
