package domain

type Category struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Categories is the fixed catalog taxonomy in display order.
var Categories = []Category{
	{Key: "smartphones", Label: "Smartphones"},
	{Key: "laptops", Label: "Laptops"},
	{Key: "tablets", Label: "Tablets"},
	{Key: "accessories", Label: "Accessories"},
	{Key: "gaming", Label: "Gaming"},
	{Key: "audio", Label: "Audio"},
	{Key: "monitors", Label: "Monitors"},
}

// IsCategory reports whether key names a known category.
func IsCategory(key string) bool {
	for _, c := range Categories {
		if c.Key == key {
			return true
		}
	}
	return false
}
