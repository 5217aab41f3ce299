package shared

// Actor is the authenticated caller, as resolved by the identity provider
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Authorization is the verdict of the permission collaborator for one command.
// The engine does not evaluate permissions; it refuses to run when Allowed is false.
type Authorization struct {
	Actor   Actor
	Allowed bool
	Reason  string
}

// Allow builds a positive verdict for actor
func Allow(actor Actor) Authorization {
	return Authorization{Actor: actor, Allowed: true}
}

// Deny builds a negative verdict for actor
func Deny(actor Actor, reason string) Authorization {
	return Authorization{Actor: actor, Reason: reason}
}
