package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rentdash/internal/dataset"
	"github.com/KaramelBytes/rentdash/internal/filter"
	"github.com/KaramelBytes/rentdash/internal/utils"
	"github.com/KaramelBytes/rentdash/internal/view"
)

// filterFlags binds the filter predicates to command flags. Flags that are
// not given keep the dataset defaults (or the saved view's values).
type filterFlags struct {
	cities  []string
	areaMin float64
	areaMax float64
	rentMin float64
	rentMax float64
	animals []string
	rooms   []int
	view    string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringSliceVar(&f.cities, "city", nil, "cities to include (repeatable or comma-separated)")
	fs.Float64Var(&f.areaMin, "area-min", 0, "minimum area in m²")
	fs.Float64Var(&f.areaMax, "area-max", 0, "maximum area in m² (shown, not applied)")
	fs.Float64Var(&f.rentMin, "rent-min", 0, "minimum rent in R$")
	fs.Float64Var(&f.rentMax, "rent-max", 0, "maximum rent in R$")
	fs.StringSliceVar(&f.animals, "animal", nil, "animal labels to include (Sim, Não)")
	fs.IntSliceVar(&f.rooms, "rooms", nil, "room counts to include")
	fs.StringVar(&f.view, "view", "", "start from a saved view")
}

// criteria resolves the flags against ds.
func (f *filterFlags) criteria(cmd *cobra.Command, ds *dataset.Dataset) (filter.Criteria, error) {
	c := filter.Defaults(ds)
	if f.view != "" {
		vs, err := viewStore()
		if err != nil {
			return c, err
		}
		v, err := vs.Load(f.view)
		if err != nil {
			return c, err
		}
		c = v.Criteria
	}
	return f.overlay(cmd, c), nil
}

// overlay applies only the flags the user set.
func (f *filterFlags) overlay(cmd *cobra.Command, c filter.Criteria) filter.Criteria {
	fs := cmd.Flags()
	if fs.Changed("city") {
		c.Cities = append([]string{}, f.cities...)
	}
	if fs.Changed("area-min") {
		c.AreaMin = f.areaMin
	}
	if fs.Changed("area-max") {
		c.AreaMax = f.areaMax
	}
	if fs.Changed("rent-min") {
		c.RentMin = f.rentMin
	}
	if fs.Changed("rent-max") {
		c.RentMax = f.rentMax
	}
	if fs.Changed("animal") {
		c.Animals = make([]string, 0, len(f.animals))
		for _, a := range f.animals {
			c.Animals = append(c.Animals, dataset.NormalizeAnimal(a))
		}
	}
	if fs.Changed("rooms") {
		c.Rooms = append([]int{}, f.rooms...)
	}
	return c
}

func viewStore() (view.Store, error) {
	c, err := requireConfig()
	if err != nil {
		return view.Store{}, err
	}
	dir, err := utils.ExpandHome(c.ViewsDir)
	if err != nil {
		return view.Store{}, err
	}
	return view.Store{Dir: dir}, nil
}
