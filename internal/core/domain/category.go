package domain

// Category is an annotation class the drawing UI can tag captures with.
// Color is the hex fill the UI renders the polygon in.
type Category struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// DefaultCategories is the built-in class catalog. It is advisory: records
// may carry categories outside this set.
var DefaultCategories = []Category{
	{Name: "rooftop", Color: "#e6194b"},
	{Name: "rooftop free", Color: "#3cb44b"},
	{Name: "rooftop obs", Color: "#ffe119"},
	{Name: "street", Color: "#4363d8"},
	{Name: "ground", Color: "#f58231"},
	{Name: "PV", Color: "#911eb4"},
	{Name: "water", Color: "#42d4f4"},
	{Name: "trees", Color: "#bfef45"},
	{Name: "grass", Color: "#fabed4"},
}
