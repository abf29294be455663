package core

// Static lookup tables for the closed category set. Kept as plain maps:
// the set never grows at runtime, so there is nothing to dispatch on.

var categoryEmoji = map[Category]string{
	Food:          "🍔",
	Transport:     "🚌",
	Housing:       "🏠",
	Entertainment: "🎬",
	Health:        "💊",
	Education:     "📚",
	Savings:       "🐖",
	Other:         "📦",
}

var categoryLabels = map[Language]map[Category]string{
	English: {
		Food:          "Food",
		Transport:     "Transport",
		Housing:       "Housing",
		Entertainment: "Entertainment",
		Health:        "Health",
		Education:     "Education",
		Savings:       "Savings",
		Other:         "Other",
	},
	French: {
		Food:          "Nourriture",
		Transport:     "Transport",
		Housing:       "Logement",
		Entertainment: "Divertissement",
		Health:        "Santé",
		Education:     "Éducation",
		Savings:       "Épargne",
		Other:         "Autre",
	},
}

var currencySymbols = map[Currency]string{
	USD: "$",
	EUR: "€",
	GBP: "£",
	INR: "₹",
	NGN: "₦",
	PHP: "₱",
}

// Emoji returns the display emoji for the category.
func (c Category) Emoji() string {
	if e, ok := categoryEmoji[c]; ok {
		return e
	}
	return categoryEmoji[Other]
}

// Label returns the translated category name. Unknown languages fall back
// to English.
func (c Category) Label(lang Language) string {
	labels, ok := categoryLabels[lang]
	if !ok {
		labels = categoryLabels[English]
	}
	if l, ok := labels[c]; ok {
		return l
	}
	return string(c)
}

// Symbol returns the currency's display symbol.
func (c Currency) Symbol() string {
	if s, ok := currencySymbols[c]; ok {
		return s
	}
	return string(c)
}
