package report

import (
	"fmt"
	"pharmaSupply/domain"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row maps column names to cell values. Values are string, int64, float64,
// decimal.Decimal, time.Time or nil.
type Row map[string]any

// Table is an ordered set of columns and their rows.
type Table struct {
	Columns []string
	Rows    []Row
}

// Project keeps only the requested columns that exist, in the requested order.
func (t Table) Project(fields []string) Table {
	if len(fields) == 0 {
		return t
	}
	known := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		known[c] = true
	}
	var cols []string
	for _, f := range fields {
		if known[f] {
			cols = append(cols, f)
		}
	}
	if len(cols) == 0 {
		return t
	}

	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out := make(Row, len(cols))
		for _, c := range cols {
			out[c] = r[c]
		}
		rows[i] = out
	}
	return Table{Columns: cols, Rows: rows}
}

// Group collapses rows sharing the groupBy values and adds one column per
// aggregation, named field_op. Groups keep first-seen order.
func (t Table) Group(groupBy []string, aggs []domain.ReportAggregation) Table {
	if len(groupBy) == 0 || len(aggs) == 0 {
		return t
	}

	type group struct {
		key   Row
		items []Row
	}
	var (
		order  []string
		groups = map[string]*group{}
	)
	for _, r := range t.Rows {
		parts := make([]string, len(groupBy))
		for i, g := range groupBy {
			parts[i] = cellString(r[g])
		}
		k := strings.Join(parts, "|")
		grp, ok := groups[k]
		if !ok {
			key := make(Row, len(groupBy))
			for _, g := range groupBy {
				key[g] = r[g]
			}
			grp = &group{key: key}
			groups[k] = grp
			order = append(order, k)
		}
		grp.items = append(grp.items, r)
	}

	cols := append([]string(nil), groupBy...)
	for _, a := range aggs {
		cols = append(cols, a.Field+"_"+a.Operation)
	}

	rows := make([]Row, 0, len(order))
	for _, k := range order {
		grp := groups[k]
		out := make(Row, len(cols))
		for c, v := range grp.key {
			out[c] = v
		}
		for _, a := range aggs {
			out[a.Field+"_"+a.Operation] = aggregate(grp.items, a)
		}
		rows = append(rows, out)
	}
	return Table{Columns: cols, Rows: rows}
}

func aggregate(rows []Row, a domain.ReportAggregation) any {
	if a.Operation == "count" {
		return int64(len(rows))
	}

	var vals []float64
	for _, r := range rows {
		if f, ok := toFloat(r[a.Field]); ok {
			vals = append(vals, f)
		}
	}
	if len(vals) == 0 {
		return nil
	}

	switch a.Operation {
	case "sum", "avg":
		sum := 0.0
		for _, v := range vals {
			sum += v
		}
		if a.Operation == "avg" {
			return sum / float64(len(vals))
		}
		return sum
	case "min", "max":
		best := vals[0]
		for _, v := range vals[1:] {
			if (a.Operation == "min" && v < best) || (a.Operation == "max" && v > best) {
				best = v
			}
		}
		return best
	}
	return nil
}

// Sort orders rows by each key in turn. Direction defaults to ascending.
func (t Table) Sort(keys []domain.ReportSort) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(t.Rows, func(i, j int) bool {
		for _, k := range keys {
			c := compare(t.Rows[i][k.Field], t.Rows[j][k.Field])
			if c == 0 {
				continue
			}
			if k.Direction == "desc" {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		}
		return 1
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(cellString(a), cellString(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case decimal.Decimal:
		f, _ := n.Float64()
		return f, true
	}
	return 0, false
}

// cellString renders a value the way every output format shows it.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case decimal.Decimal:
		return x.String()
	case float64:
		return decimal.NewFromFloat(x).Round(4).String()
	}
	return fmt.Sprint(v)
}
