package menu

// Filter returns the items that match activeCategory (nil matches all) and
// carry none of the excluded allergens. The input slice is never modified.
func Filter(items []MenuItem, activeCategory *string, excluded []string) []MenuItem {
	excludedSet := make(map[string]struct{}, len(excluded))
	for _, a := range excluded {
		excludedSet[a] = struct{}{}
	}

	result := make([]MenuItem, 0, len(items))
	for _, item := range items {
		if activeCategory != nil && item.Category != *activeCategory {
			continue
		}
		if len(excludedSet) > 0 && hasAny(item.Allergens, excludedSet) {
			continue
		}
		result = append(result, item)
	}
	return result
}

func hasAny(allergens []string, set map[string]struct{}) bool {
	for _, a := range allergens {
		if _, ok := set[a]; ok {
			return true
		}
	}
	return false
}
