package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation
// registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// the product list must not contain duplicate product ids; the enrichment
	// path keys its lookups by product id
	v.RegisterStructValidation(submitOrderStructValidation, SubmitOrderRequest{})

	return v
}

func submitOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(SubmitOrderRequest)

	seen := map[string]bool{}
	for _, p := range req.Products {
		if seen[p.ProductID] {
			sl.ReportError(req.Products, "products", "Products", "unique_product_ids", p.ProductID)
			return
		}
		seen[p.ProductID] = true
	}
}
