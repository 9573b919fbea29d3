package service

import (
	"context"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// CityChoices merges hometowns and trip cities into a sorted list without
// duplicates or blanks.
func CityChoices(hometowns, opportunityCities []string) []string {
	all := lo.Map(lo.Flatten([][]string{hometowns, opportunityCities}), func(c string, _ int) string {
		return strings.TrimSpace(c)
	})
	out := lo.Uniq(lo.Compact(all))
	sort.Strings(out)
	return out
}

// Cities returns the choices for the city keyboard. They are read fresh on
// every call.
func (s *Opportunities) Cities(ctx context.Context) ([]string, error) {
	hometowns, err := s.store.Hometowns(ctx)
	if err != nil {
		return nil, err
	}
	opCities, err := s.store.OpportunityCities(ctx, s.today())
	if err != nil {
		return nil, err
	}
	return CityChoices(hometowns, opCities), nil
}
