package roles

import (
	"github.com/DevSymphony/sysop/pkg/schema"
)

// ValidationResult represents the result of an intent permission check
type ValidationResult struct {
	Allowed  bool
	Required Role // role the intent demands
}

// RequiredRole returns the minimum role an intent demands.
// Intents without an explicit role are available to operators.
func RequiredRole(def *schema.IntentDefinition) Role {
	if def == nil || def.Role == "" {
		return Operator
	}
	r, err := Parse(def.Role)
	if err != nil {
		// unknown roles are rejected at catalogue load; fail closed anyway
		return Admin
	}
	return r
}

// ValidateIntentPermission checks whether role may execute the intent
func ValidateIntentPermission(role Role, def *schema.IntentDefinition) ValidationResult {
	required := RequiredRole(def)
	return ValidationResult{
		Allowed:  Allows(role, required),
		Required: required,
	}
}
