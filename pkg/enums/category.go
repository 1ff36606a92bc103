package enums

import "fmt"

// Category is the marketplace segment attached to every generated observation.
type Category string

const (
	CategoryElectronics   Category = "Electronics"
	CategoryAgriculture   Category = "Agriculture"
	CategoryManufacturing Category = "Manufacturing"
	CategoryEntertainment Category = "Entertainment"
	CategoryEducation     Category = "Education"
	CategoryTechnology    Category = "Technology"
)

var validCategories = []Category{
	CategoryElectronics,
	CategoryAgriculture,
	CategoryManufacturing,
	CategoryEntertainment,
	CategoryEducation,
	CategoryTechnology,
}

// Categories returns the fixed category set in declaration order.
func Categories() []Category {
	out := make([]Category, len(validCategories))
	copy(out, validCategories)
	return out
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// IsValid reports whether the category is recognized.
func (c Category) IsValid() bool {
	for _, candidate := range validCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCategory converts a raw string into a Category.
func ParseCategory(value string) (Category, error) {
	category := Category(value)
	if !category.IsValid() {
		return "", fmt.Errorf("invalid category %q", value)
	}
	return category, nil
}
