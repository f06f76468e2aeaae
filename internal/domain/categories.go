package domain

// Category is one of the seven card categories filled each round.
type Category string

const (
	CategoryName      Category = "NAME"
	CategoryVegetable Category = "VEGETABLE"
	CategoryFruit     Category = "FRUIT"
	CategoryCity      Category = "CITY"
	CategoryJob       Category = "JOB"
	CategoryAnimal    Category = "ANIMAL"
	CategoryInanimate Category = "INANIMATE"
)

// CardSequence is the fixed order cards are presented, filled and compared in.
var CardSequence = []Category{
	CategoryName,
	CategoryVegetable,
	CategoryFruit,
	CategoryCity,
	CategoryJob,
	CategoryAnimal,
	CategoryInanimate,
}

// IsCategory reports whether c names one of the seven playable categories.
func IsCategory(c Category) bool {
	for _, known := range CardSequence {
		if c == known {
			return true
		}
	}
	return false
}
