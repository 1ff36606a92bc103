package pagination

import "strconv"

const (
	// DefaultLimit is the page size used when a limit is absent or unusable.
	DefaultLimit = 100
	// DefaultOffset is the starting position used when an offset is absent or unusable.
	DefaultOffset = 0
)

// Params holds resolved limit/offset paging inputs.
type Params struct {
	Limit  int
	Offset int
}

// NormalizeLimit coerces non-positive limits to the default. Malformed client
// input never surfaces as an error, only as the default page size.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// NormalizeOffset coerces negative offsets to the default.
func NormalizeOffset(offset int) int {
	if offset < 0 {
		return DefaultOffset
	}
	return offset
}

// ParseLimit resolves a raw query value into a usable limit.
func ParseLimit(raw string) int {
	value, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultLimit
	}
	return NormalizeLimit(value)
}

// ParseOffset resolves a raw query value into a usable offset.
func ParseOffset(raw string) int {
	value, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultOffset
	}
	return NormalizeOffset(value)
}
