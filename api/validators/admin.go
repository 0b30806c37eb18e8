package validators

import (
	"net/http"
	"strings"
)

// AdminPasswordHeader may carry the admin password instead of the body field.
const AdminPasswordHeader = "X-Admin-Password"

type passwordVerifier interface {
	Verify(password string) error
}

// RequireAdmin checks the header password, falling back to the body value.
func RequireAdmin(gate passwordVerifier, r *http.Request, bodyPassword string) error {
	password := strings.TrimSpace(r.Header.Get(AdminPasswordHeader))
	if password == "" {
		password = bodyPassword
	}
	return gate.Verify(password)
}
