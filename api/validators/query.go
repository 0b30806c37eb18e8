package validators

import (
	"net/http"
	"strings"
)

// MonthQuery returns the raw ?month= value; resolution to a concrete month
// happens in the services.
func MonthQuery(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("month"))
}

// QueryString returns a trimmed query parameter.
func QueryString(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
