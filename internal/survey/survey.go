// Package survey implements the exploratory passes over an OSM extract
// used to discover which tags exist and which street names need rules.
package survey

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/paulmach/osm"

	"github.com/couchcryptid/osm-berlin-etl/internal/domain"
)

// ObjectSource yields decoded OSM objects until io.EOF.
type ObjectSource interface {
	Next() (osm.Object, error)
}

// Count is a named occurrence count.
type Count struct {
	Name  string
	Count int
}

func each(src ObjectSource, fn func(osm.Object)) error {
	for {
		obj, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fn(obj)
	}
}

func tagsOf(obj osm.Object) osm.Tags {
	switch v := obj.(type) {
	case *osm.Node:
		return v.Tags
	case *osm.Way:
		return v.Tags
	case *osm.Relation:
		return v.Tags
	case *osm.Changeset:
		return v.Tags
	default:
		return nil
	}
}

// CollectStreetNames returns the distinct addr:street values found on ways,
// sorted.
func CollectStreetNames(src ObjectSource) ([]string, error) {
	seen := make(map[string]struct{})
	err := each(src, func(obj osm.Object) {
		way, ok := obj.(*osm.Way)
		if !ok {
			return
		}
		for _, t := range way.Tags {
			if t.Key == domain.StreetKey {
				seen[t.Value] = struct{}{}
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("collect street names: %w", err)
	}
	return slices.Sorted(maps.Keys(seen)), nil
}

// WriteStreetNames writes one name per line without a trailing newline.
func WriteStreetNames(w io.Writer, names []string) error {
	_, err := io.WriteString(w, strings.Join(names, "\n"))
	return err
}

// CountTagKeys counts every tag key, sorted by key.
func CountTagKeys(src ObjectSource) ([]Count, error) {
	counts := make(map[string]int)
	err := each(src, func(obj osm.Object) {
		for _, t := range tagsOf(obj) {
			counts[t.Key]++
		}
	})
	if err != nil {
		return nil, fmt.Errorf("count tag keys: %w", err)
	}
	out := toCounts(counts)
	slices.SortFunc(out, func(a, b Count) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

// CountPaths counts XML element paths such as osm.way.nd, sorted by path
// length and then by name.
func CountPaths(src ObjectSource) ([]Count, error) {
	counts := map[string]int{"osm": 1}
	err := each(src, func(obj osm.Object) {
		prefix := "osm." + string(obj.ObjectID().Type())
		counts[prefix]++
		switch v := obj.(type) {
		case *osm.Way:
			if len(v.Nodes) > 0 {
				counts[prefix+".nd"] += len(v.Nodes)
			}
		case *osm.Relation:
			if len(v.Members) > 0 {
				counts[prefix+".member"] += len(v.Members)
			}
		}
		if tags := tagsOf(obj); len(tags) > 0 {
			counts[prefix+".tag"] += len(tags)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("count paths: %w", err)
	}
	out := toCounts(counts)
	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(len(a.Name), len(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}

func toCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for name, n := range m {
		out = append(out, Count{Name: name, Count: n})
	}
	return out
}

// WriteCounts prints a title line followed by one right-aligned count per line.
func WriteCounts(w io.Writer, title string, counts []Count) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for _, c := range counts {
		if _, err := fmt.Fprintf(w, "%10d %s\n", c.Count, c.Name); err != nil {
			return err
		}
	}
	return nil
}
