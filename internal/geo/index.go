package geo

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
)

// DefaultNeighborK is the neighbor count used when a query passes k <= 0.
const DefaultNeighborK = 5

// Neighbor is one entry of a district's NeighborSet.
type Neighbor struct {
	DistrictID string  `json:"district_id"`
	DistanceKM float64 `json:"distance_km"`
}

// Index is an immutable view of the registry with every district's neighbors
// precomputed. It is safe for concurrent reads.
type Index struct {
	locations map[string]domain.DistrictLocation
	ids       []string
	neighbors map[string][]Neighbor // all other districts, ascending by distance then ID
	k         int
}

// NewIndex builds an Index from a registry snapshot. k caps neighbor queries
// that do not ask for an explicit count; values <= 0 select DefaultNeighborK.
func NewIndex(locs []domain.DistrictLocation, k int) (*Index, error) {
	if k <= 0 {
		k = DefaultNeighborK
	}
	ix := &Index{
		locations: make(map[string]domain.DistrictLocation, len(locs)),
		ids:       make([]string, 0, len(locs)),
		neighbors: make(map[string][]Neighbor, len(locs)),
		k:         k,
	}
	for _, loc := range locs {
		if loc.DistrictID == "" {
			return nil, errors.New("registry entry without district id")
		}
		if !validCoordinate(loc.Latitude, 90) || !validCoordinate(loc.Longitude, 180) {
			return nil, fmt.Errorf("district %q: coordinates out of range", loc.DistrictID)
		}
		if _, dup := ix.locations[loc.DistrictID]; dup {
			return nil, fmt.Errorf("district %q registered twice", loc.DistrictID)
		}
		ix.locations[loc.DistrictID] = loc
		ix.ids = append(ix.ids, loc.DistrictID)
	}
	slices.Sort(ix.ids)

	for _, id := range ix.ids {
		set := make([]Neighbor, 0, len(ix.ids)-1)
		for _, other := range ix.ids {
			if other == id {
				continue
			}
			set = append(set, Neighbor{DistrictID: other, DistanceKM: ix.distance(id, other)})
		}
		slices.SortFunc(set, compareNeighbors)
		ix.neighbors[id] = set
	}
	return ix, nil
}

// compareNeighbors orders by distance ascending, breaking ties by district ID.
func compareNeighbors(a, b Neighbor) int {
	if c := cmp.Compare(a.DistanceKM, b.DistanceKM); c != 0 {
		return c
	}
	return cmp.Compare(a.DistrictID, b.DistrictID)
}

// Len returns the number of registered districts.
func (ix *Index) Len() int { return len(ix.ids) }

// IDs returns all district IDs in lexical order.
func (ix *Index) IDs() []string {
	return slices.Clone(ix.ids)
}

// K returns the configured default neighbor count.
func (ix *Index) K() int { return ix.k }

// Location returns the registry entry for id.
func (ix *Index) Location(id string) (domain.DistrictLocation, error) {
	loc, ok := ix.locations[id]
	if !ok {
		return domain.DistrictLocation{}, domain.UnknownDistrict(id)
	}
	return loc, nil
}

// Contains reports whether id is registered.
func (ix *Index) Contains(id string) bool {
	_, ok := ix.locations[id]
	return ok
}

// Distance returns the great-circle distance between two districts in kilometers.
func (ix *Index) Distance(a, b string) (float64, error) {
	if !ix.Contains(a) {
		return 0, domain.UnknownDistrict(a)
	}
	if !ix.Contains(b) {
		return 0, domain.UnknownDistrict(b)
	}
	return ix.distance(a, b), nil
}

// distance evaluates the pair in lexical order so (a, b) and (b, a) are
// bit-identical.
func (ix *Index) distance(a, b string) float64 {
	if a == b {
		return 0
	}
	if b < a {
		a, b = b, a
	}
	la, lb := ix.locations[a], ix.locations[b]
	return Haversine(la.Latitude, la.Longitude, lb.Latitude, lb.Longitude)
}

// Bearing returns the initial bearing from district `from` to district `to`.
func (ix *Index) Bearing(from, to string) (float64, error) {
	lf, err := ix.Location(from)
	if err != nil {
		return 0, err
	}
	lt, err := ix.Location(to)
	if err != nil {
		return 0, err
	}
	return InitialBearing(lf.Latitude, lf.Longitude, lt.Latitude, lt.Longitude), nil
}

// Neighbors returns up to k nearest districts to id, excluding id itself,
// ascending by distance with ties broken by district ID. k <= 0 uses the
// index default. The returned slice is a copy.
func (ix *Index) Neighbors(id string, k int) ([]Neighbor, error) {
	set, ok := ix.neighbors[id]
	if !ok {
		return nil, domain.UnknownDistrict(id)
	}
	if k <= 0 {
		k = ix.k
	}
	k = min(k, len(set))
	return slices.Clone(set[:k]), nil
}

// NeighborSet returns the capped neighbor lists for every district.
func (ix *Index) NeighborSet() map[string][]Neighbor {
	out := make(map[string][]Neighbor, len(ix.ids))
	for _, id := range ix.ids {
		out[id], _ = ix.Neighbors(id, ix.k)
	}
	return out
}

func validCoordinate(v, limit float64) bool {
	return !math.IsNaN(v) && v >= -limit && v <= limit
}
