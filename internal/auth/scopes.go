package auth

import "strings"

// DefaultScopes are the OAuth scopes requested by the device flow.
// "repo" covers Actions secrets on private repositories.
var DefaultScopes = []string{"repo"}

// ScopeString returns scopes space-separated, as GitHub expects
func ScopeString() string {
	return strings.Join(DefaultScopes, " ")
}
