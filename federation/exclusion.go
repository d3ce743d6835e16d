package federation

// ExclusionRule nulls every representation it matches before any lookup.
type ExclusionRule struct {
	Name  string
	Match func(representation map[string]any) bool
}

// ProductUPCExclusion nulls Product representations keyed by a string upc.
// Products referenced that way are owned and resolved by another service.
var ProductUPCExclusion = ExclusionRule{
	Name: "product-upc",
	Match: func(representation map[string]any) bool {
		typename, _ := representation["__typename"].(string)
		_, hasUPC := representation["upc"].(string)
		return typename == "Product" && hasUPC
	},
}

// DefaultExclusions returns the rules applied when none are configured
func DefaultExclusions() []ExclusionRule {
	return []ExclusionRule{ProductUPCExclusion}
}
