// Package models contains domain models for namegroup.
package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"slices"

	"github.com/goccy/go-json"
)

var (
	// ErrGroupNotFound indicates a referenced group does not exist in the
	// grouping result.
	ErrGroupNotFound = errors.New("models: group not found")
	// ErrNameNotInGroup indicates the name is not a member of the stated
	// source group.
	ErrNameNotInGroup = errors.New("models: name not found in group")
)

// GroupMap is a grouping result: group name to ordered member names. It is
// stored as a JSON object in a TEXT column.
type GroupMap map[string][]string

// Value implements driver.Valuer for database storage.
func (g GroupMap) Value() (driver.Value, error) {
	if g == nil {
		return "{}", nil
	}
	data, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for database retrieval.
func (g *GroupMap) Scan(value interface{}) error {
	if value == nil {
		*g = GroupMap{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("models: cannot scan %T into GroupMap", value)
	}

	if len(data) == 0 {
		*g = GroupMap{}
		return nil
	}
	return json.Unmarshal(data, g)
}

// MoveName moves one name from the source group to the target group. The
// name is removed from the source's member list, the source group is deleted
// when it becomes empty, and the target group is created on demand. The
// grouping algorithm is not re-run; this is a direct edit of an
// already-produced result.
func (g GroupMap) MoveName(name, sourceGroup, targetGroup string) error {
	source, ok := g[sourceGroup]
	if !ok {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, sourceGroup)
	}

	idx := slices.Index(source, name)
	if idx < 0 {
		return fmt.Errorf("%w: %q in group %q", ErrNameNotInGroup, name, sourceGroup)
	}

	source = slices.Delete(source, idx, idx+1)
	if len(source) == 0 {
		delete(g, sourceGroup)
	} else {
		g[sourceGroup] = source
	}

	g[targetGroup] = append(g[targetGroup], name)
	return nil
}
