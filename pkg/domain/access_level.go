package domain

import pkgerrors "dataportal/pkg/domain-errors"

// AccessLevel is the level a subject requests, and later holds, on a
// resource. Levels map onto the catalog backend's own role model downstream
// (e.g. a BigQuery dataset reader); this core only carries the label.
type AccessLevel string

const (
	AccessLevelReader AccessLevel = "READER"
	AccessLevelWriter AccessLevel = "WRITER"
)

// ParseAccessLevel validates an externally supplied access level string.
func ParseAccessLevel(s string) (AccessLevel, error) {
	switch AccessLevel(s) {
	case AccessLevelReader, AccessLevelWriter:
		return AccessLevel(s), nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown access level: "+s)
}
