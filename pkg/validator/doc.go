// Package validator provides small declarative validation rules.
//
// Each helper returns a Rule: a Check function plus a ValidationError carrying
// the field name, a human message and a translation key. Apply evaluates the
// rules and aggregates failures into ValidationErrors, which implements error.
//
//	err := validator.Apply(
//	    validator.RequiredString("name", in.Name),
//	    validator.MaxLenString("name", in.Name, 120),
//	    validator.Positive("monthly_price", in.MonthlyPrice),
//	    validator.InList("method", in.Method, methods),
//	)
//	if errs := validator.ExtractValidationErrors(err); errs != nil {
//	    // render per-field messages
//	}
//
// Rules capture their inputs by value and hold no state, so they are safe to
// build and apply concurrently. Use When to attach a rule conditionally.
package validator
