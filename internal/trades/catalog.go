// internal/trades/catalog.go
package trades

// Canonical is the master trade list for QSR construction projects. Bid
// sheets and the dashboard group proposals under these names.
var Canonical = []string{
	"Architecture",
	"Bathrooms",
	"Building Materials",
	"Canopies",
	"Caulking",
	"Concrete",
	"Doors & Windows",
	"Drywall",
	"Dumpster Service",
	"Earthwork",
	"Excavation",
	"Final Cleaning",
	"Flooring",
	"Framing",
	"Glasswork",
	"Landscaping",
	"Low Voltage",
	"Masonry",
	"Mechanical",
	"Metals",
	"Painting",
	"Plumbing",
	"Roofing",
	"Steel",
	"Storefront",
	"Striping",
	"TAB",
	"Toilet Accessories",
	"TPO",
	"Trusses",
	"Utilities",
	"Welding",
	"Windows",
}

// defaultAliases maps the tokens subcontractors actually put in filenames
// to canonical trade names. Keys are lowercase. Cleaning terms collapse to
// Final Cleaning, carpentry to Framing, misc steel variants to Steel.
var defaultAliases = map[string]string{
	"bathrooms": "Bathrooms",
	"bath":      "Bathrooms",

	"canopies": "Canopies",
	"canopy":   "Canopies",

	"caulking":           "Caulking",
	"sealant & caulking": "Caulking",
	"sealant":            "Caulking",

	"concrete": "Concrete",

	"doors & windows": "Doors & Windows",
	"doors":           "Doors & Windows",
	"windows":         "Doors & Windows",
	"door and window": "Doors & Windows",

	"drywall": "Drywall",

	"dumpster service":  "Dumpster Service",
	"dumpster":          "Dumpster Service",
	"trash service":     "Dumpster Service",
	"dumpster services": "Dumpster Service",

	"earthwork":          "Earthwork",
	"earthwork building": "Earthwork",

	"excavation": "Excavation",

	"final cleaning":             "Final Cleaning",
	"post construction cleanup":  "Final Cleaning",
	"post construction cleaning": "Final Cleaning",
	"cleaning":                   "Final Cleaning",
	"cleanup":                    "Final Cleaning",
	"cleanup services":           "Final Cleaning",
	"cleanup service":            "Final Cleaning",

	"flooring": "Flooring",

	"framing":             "Framing",
	"framing & carpentry": "Framing",
	"carpentry":           "Framing",

	"glasswork": "Glasswork",

	"landscaping": "Landscaping",
	"landscape":   "Landscaping",

	"low voltage": "Low Voltage",

	"masonry": "Masonry",

	"mechanical": "Mechanical",

	"metals": "Metals",

	"misc steel":   "Steel",
	"steel (misc)": "Steel",
	"steel":        "Steel",

	"painting": "Painting",

	"plumbing": "Plumbing",

	"roofing": "Roofing",
	"tpo":     "TPO",

	"storefront": "Storefront",

	"striping":           "Striping",
	"striping & marking": "Striping",

	"swppp": "SWPPP",
	"swpp":  "SWPPP",

	"tab":                   "TAB",
	"test and balance":      "TAB",
	"testing and balancing": "TAB",

	"toilet accessories": "Toilet Accessories",

	"trusses": "Trusses",

	"utilities": "Utilities",

	"welding": "Welding",
}

// DefaultAliases returns a fresh copy of the built-in alias table so
// callers can layer user-managed rows on top without mutating the seed.
func DefaultAliases() map[string]string {
	out := make(map[string]string, len(defaultAliases))
	for k, v := range defaultAliases {
		out[k] = v
	}
	return out
}
