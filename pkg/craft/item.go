package craft

import "strings"

// ============================================
// ITEM TYPES
// ============================================

// Rarity grades how hard an item is to come by. The zero value is Common;
// higher values are rarer. RarityUnknown ranks above everything so that
// unresolved items never look cheap.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityVeryRare
	RarityUnknown
)

var rarityNames = map[Rarity]string{
	RarityCommon:   "Common",
	RarityUncommon: "Uncommon",
	RarityRare:     "Rare",
	RarityVeryRare: "Very Rare",
	RarityUnknown:  "Unknown",
}

// String returns the display name of the rarity.
func (r Rarity) String() string {
	if name, ok := rarityNames[r]; ok {
		return name
	}
	return "Unknown"
}

// ParseRarity maps a display name to a Rarity; unrecognized names map to
// RarityUnknown.
func ParseRarity(s string) Rarity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "common":
		return RarityCommon
	case "uncommon":
		return RarityUncommon
	case "rare":
		return RarityRare
	case "very rare", "veryrare", "very_rare":
		return RarityVeryRare
	default:
		return RarityUnknown
	}
}

// Class categorizes an item. Only ClassResource is semantically special: it
// selects the large refiner output batch.
type Class string

const (
	ClassResource   Class = "Resource"
	ClassProduct    Class = "Product"
	ClassComponent  Class = "Component"
	ClassTech       Class = "Tech"
	ClassTradeable  Class = "Tradeable"
	ClassPlant      Class = "Plant"
	ClassConsumable Class = "Consumable"
	ClassUnknown    Class = "Unknown"
)

// ParseClass maps a name to a Class; unrecognized names map to ClassUnknown.
func ParseClass(s string) Class {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "resource":
		return ClassResource
	case "product":
		return ClassProduct
	case "component":
		return ClassComponent
	case "tech", "technology":
		return ClassTech
	case "tradeable", "trade good", "tradegood":
		return ClassTradeable
	case "plant":
		return ClassPlant
	case "consumable":
		return ClassConsumable
	default:
		return ClassUnknown
	}
}

// Item is a catalog entry: something formulas produce or consume.
type Item struct {
	ID     string  `json:"id"`
	Name   string  `json:"name,omitempty"`
	Symbol string  `json:"symbol,omitempty"`
	Value  float64 `json:"value"`
	Rarity Rarity  `json:"-"`
	Class  Class   `json:"cls,omitempty"`

	// SourceFormulas produce this item; Formulas consume it as an
	// ingredient. Populated by the catalog, nil for bare items.
	SourceFormulas []*Formula `json:"-"`
	Formulas       []*Formula `json:"-"`
}

// SymbolOrID returns the chemical-style symbol when known, else the id.
func (it *Item) SymbolOrID() string {
	if it.Symbol != "" {
		return it.Symbol
	}
	return it.ID
}

// Default refiner output-slot capacities. Raw resources stack far deeper
// than crafted goods.
const (
	ResourceBatchCap = 4095
	DefaultBatchCap  = 10
)

// RefinerBatchCap returns the output batch capacity for an item class.
func RefinerBatchCap(cls Class) int {
	if cls == ClassResource {
		return ResourceBatchCap
	}
	return DefaultBatchCap
}
