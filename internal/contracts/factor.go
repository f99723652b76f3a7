package contracts

import (
	"math"
	"sort"
)

// FactorTable is a per-stock numeric table with optional categorical labels
// ⭐ SSOT: S3 입력(RawFactorTable) 및 출력(CleanedFactorTable)
// 결측값은 키 부재 또는 NaN으로 표현
type FactorTable struct {
	Columns []Field                      `json:"columns"`
	Rows    map[string]map[Field]float64 `json:"rows"`
	Labels  map[string]map[Field]string  `json:"labels,omitempty"`
}

// NewFactorTable creates an empty table
func NewFactorTable(columns ...Field) *FactorTable {
	return &FactorTable{
		Columns: columns,
		Rows:    make(map[string]map[Field]float64),
		Labels:  make(map[string]map[Field]string),
	}
}

// FactorTableFromFundamentals projects a fundamentals table onto columns.
// Label fields go to Labels, numeric fields to Rows; codes outside the
// restriction set are dropped.
func FactorTableFromFundamentals(ft *FundamentalsTable, restrict StockSet, columns []Field, controls []Field) *FactorTable {
	t := NewFactorTable(columns...)
	for code, row := range ft.Rows {
		if restrict != nil && !restrict.Has(code) {
			continue
		}
		values := make(map[Field]float64)
		for _, f := range append(append([]Field{}, columns...), controls...) {
			if f.IsLabel() {
				if v, ok := row.Label(f); ok {
					t.SetLabel(code, f, v)
				}
				continue
			}
			if v, ok := row.Values[f]; ok {
				values[f] = v
			} else {
				values[f] = math.NaN()
			}
		}
		t.Rows[code] = values
	}
	return t
}

// Set stores a numeric value
func (t *FactorTable) Set(code string, col Field, v float64) {
	row, ok := t.Rows[code]
	if !ok {
		row = make(map[Field]float64)
		t.Rows[code] = row
	}
	row[col] = v
}

// SetLabel stores a categorical value
func (t *FactorTable) SetLabel(code string, col Field, v string) {
	row, ok := t.Labels[code]
	if !ok {
		row = make(map[Field]string)
		t.Labels[code] = row
	}
	row[col] = v
}

// Value returns a finite value
func (t *FactorTable) Value(code string, col Field) (float64, bool) {
	row, ok := t.Rows[code]
	if !ok {
		return 0, false
	}
	v, ok := row[col]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Label returns a non-empty label
func (t *FactorTable) Label(code string, col Field) (string, bool) {
	row, ok := t.Labels[code]
	if !ok {
		return "", false
	}
	v, ok := row[col]
	return v, ok && v != ""
}

// Codes returns row keys in ascending order
func (t *FactorTable) Codes() []string {
	codes := make([]string, 0, len(t.Rows))
	for code := range t.Rows {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Len returns the number of rows
func (t *FactorTable) Len() int {
	return len(t.Rows)
}
