package audit

import (
	"errors"
	"fmt"
	"strings"
)

// OperationKind names the business operation an entry records.
type OperationKind string

const (
	AddStudent          OperationKind = "ADD_STUDENT"
	RecordGrade         OperationKind = "RECORD_GRADE"
	FindStudent         OperationKind = "FIND_STUDENT"
	ViewGrades          OperationKind = "VIEW_GRADES"
	CalculateStatistics OperationKind = "CALCULATE_STATISTICS"
	Search              OperationKind = "SEARCH"
	ExportReport        OperationKind = "EXPORT_REPORT"
	BulkImport          OperationKind = "BULK_IMPORT"
	CacheManagement     OperationKind = "CACHE_MANAGEMENT"
)

// ErrUnknownOperation is returned by ParseOperationKind.
var ErrUnknownOperation = errors.New("unknown operation kind")

// OperationKinds lists every kind in declaration order.
func OperationKinds() []OperationKind {
	return []OperationKind{
		AddStudent,
		RecordGrade,
		FindStudent,
		ViewGrades,
		CalculateStatistics,
		Search,
		ExportReport,
		BulkImport,
		CacheManagement,
	}
}

// ParseOperationKind accepts any letter case.
func ParseOperationKind(s string) (OperationKind, error) {
	want := OperationKind(strings.ToUpper(strings.TrimSpace(s)))
	for _, k := range OperationKinds() {
		if k == want {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperation, s)
}
