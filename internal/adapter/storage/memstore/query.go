package memstore

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"vexachat/internal/domain/storage"
	"vexachat/pkg/errors"
)

func validateQuery(q storage.Query) error {
	for _, f := range q.Filters {
		if f.Field == "" {
			return errors.BadRequest("filter field is required", nil)
		}
		switch f.Op {
		case storage.OpEqual, storage.OpArrayContains:
		default:
			return errors.BadRequest(fmt.Sprintf("unsupported filter operator %q", f.Op), nil)
		}
	}
	return nil
}

// runQuery filters, orders and truncates under the store lock. Without an
// explicit order the result is sorted by id so repeated calls are stable.
func runQuery(c *collection, q storage.Query) []storage.Document {
	var out []storage.Document
	for id, doc := range c.docs {
		if doc.rec == nil {
			continue
		}
		if matches(doc.rec, q.Filters) {
			out = append(out, storage.Document{ID: id, Data: copyRecord(doc.rec)})
		}
	}

	if q.OrderBy != nil {
		field, desc := q.OrderBy.Field, q.OrderBy.Direction == storage.Desc
		sort.SliceStable(out, func(i, j int) bool {
			cmp := compareValues(out[i].Data[field], out[j].Data[field])
			if cmp == 0 {
				// Ties break on document id in the query direction, as the
				// hosted backend does with its implicit order by name.
				if desc {
					return out[i].ID > out[j].ID
				}
				return out[i].ID < out[j].ID
			}
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func matches(rec storage.Record, filters []storage.Filter) bool {
	for _, f := range filters {
		switch f.Op {
		case storage.OpEqual:
			if !equalValues(rec[f.Field], f.Value) {
				return false
			}
		case storage.OpArrayContains:
			if !arrayContains(rec[f.Field], f.Value) {
				return false
			}
		}
	}
	return true
}

func arrayContains(field, value interface{}) bool {
	switch arr := field.(type) {
	case []string:
		for _, item := range arr {
			if equalValues(item, value) {
				return true
			}
		}
	case []interface{}:
		for _, item := range arr {
			if equalValues(item, value) {
				return true
			}
		}
	}
	return false
}

func equalValues(a, b interface{}) bool {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	if a == nil || b == nil {
		return a == b
	}
	// Array and map values (participants lists, nested records) are not
	// comparable with ==; comparing them directly would panic.
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return reflect.DeepEqual(a, b)
	}
	return a == b
}

// compareValues orders mixed field values: nil first, then bools, numbers,
// times and strings. Incomparable kinds fall back to their printed form.
func compareValues(a, b interface{}) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			switch {
			case as < bs:
				return -1
			case as > bs:
				return 1
			default:
				return 0
			}
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0
			case !ab:
				return -1
			default:
				return 1
			}
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func copyRecord(rec storage.Record) storage.Record {
	out := make(storage.Record, len(rec))
	for k, v := range rec {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case storage.Record:
		m := make(map[string]interface{}, len(val))
		for k, item := range val {
			m[k] = copyValue(item)
		}
		return m
	case map[string]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, item := range val {
			m[k] = copyValue(item)
		}
		return m
	case []string:
		return append([]string(nil), val...)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
