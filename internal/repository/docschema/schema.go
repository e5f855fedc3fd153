// Package docschema maps heterogeneous source collections onto the canonical
// result shape. Each collection declares one Schema table; all field-name
// fallbacks live here rather than inline in the search path.
package docschema

import (
	"strconv"
	"strings"
	"time"

	"github.com/arsomjin/kbnsearch/internal/db"
	"github.com/arsomjin/kbnsearch/internal/domain/search/result"
)

// UnspecifiedName is the placeholder shown when a record carries no
// customer name in any of its fallback fields.
const UnspecifiedName = "ไม่ระบุ"

// Schema describes how one source collection maps onto result.Result.
type Schema struct {
	Collection string
	DocType    result.DocType

	// NumberField is the primary identifier, stored uppercased and
	// range-indexable (prefix search target).
	NumberField string

	// NameFields is the customer-name fallback chain, raw case.
	// LowerNameField is the lowercase-normalized variant maintained for
	// prefix search; legacy records may lack it.
	NameFields     []string
	LowerNameField string

	CustomerIDField   string
	AmountFields      []string
	DateField         string
	StatusField       string
	ProvinceField     string
	BranchField       string
	SalesPersonField  string
	DescriptionFields []string
	ReferenceFields   []string

	// KeywordFields feed the keyword indexer at write time.
	// ScanFields are the candidates concatenated for the client-side
	// substring match of the recency-scan strategy; absent fields are
	// skipped.
	KeywordFields []string
	ScanFields    []string

	// KeywordsField holds the persisted keyword array; CreatedField is the
	// recency-filter timestamp.
	KeywordsField string
	CreatedField  string
}

// Normalize maps a raw record onto the canonical result shape.
// dateFallback reports that the record's date was missing or unparseable
// and was substituted with now. Kept for sort stability, surfaced so the
// caller can count it.
func (s Schema) Normalize(rec db.Record, now time.Time) (res result.Result, dateFallback bool) {
	res = result.Result{
		ID:             rec.ID,
		DocumentNumber: stringField(rec.Fields, s.NumberField),
		CustomerName:   firstString(rec.Fields, s.NameFields),
		CustomerID:     stringField(rec.Fields, s.CustomerIDField),
		Amount:         firstNumber(rec.Fields, s.AmountFields),
		Status:         stringField(rec.Fields, s.StatusField),
		ProvinceID:     stringField(rec.Fields, s.ProvinceField),
		BranchCode:     stringField(rec.Fields, s.BranchField),
		SalesPerson:    stringField(rec.Fields, s.SalesPersonField),
		Description:    firstString(rec.Fields, s.DescriptionFields),
		DocType:        s.DocType,
		ReferenceNo:    firstString(rec.Fields, s.ReferenceFields),
	}
	if res.CustomerName == "" {
		res.CustomerName = UnspecifiedName
	}

	if millis, ok := parseDate(rec.Fields[s.DateField]); ok {
		res.Date = millis
	} else {
		res.Date = now.UnixMilli()
		dateFallback = true
	}
	return res, dateFallback
}

// Matches performs the case-insensitive substring test of the recency-scan
// strategy: the lowercased term against a concatenation of the schema's
// scan fields. Absent or non-string fields are skipped.
func (s Schema) Matches(rec db.Record, lowerTerm string) bool {
	if lowerTerm == "" {
		return false
	}
	var b strings.Builder
	for _, field := range s.ScanFields {
		if v, ok := rec.Fields[field].(string); ok && v != "" {
			b.WriteString(strings.ToLower(v))
			b.WriteByte(' ')
		}
	}
	return strings.Contains(b.String(), lowerTerm)
}

func stringField(fields map[string]any, name string) string {
	if name == "" {
		return ""
	}
	v, _ := fields[name].(string)
	return v
}

func firstString(fields map[string]any, names []string) string {
	for _, name := range names {
		if v, ok := fields[name].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func firstNumber(fields map[string]any, names []string) float64 {
	for _, name := range names {
		switch v := fields[name].(type) {
		case float64:
			return v
		case int64:
			return float64(v)
		case int:
			return float64(v)
		case string:
			if f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64); err == nil {
				return f
			}
		}
	}
	return 0
}

// parseDate accepts epoch milliseconds (numeric) or common date strings.
func parseDate(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		if t > 0 {
			return t, true
		}
	case float64:
		if t > 0 {
			return int64(t), true
		}
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts.UnixMilli(), true
			}
		}
	}
	return 0, false
}
