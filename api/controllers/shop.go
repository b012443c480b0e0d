package controllers

import (
	"net/http"
	"strings"
)

const shopDomainHeader = "X-Shop-Domain"

// shopFromRequest reads the merchant shop domain the admin UI sends with
// every API call.
func shopFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(shopDomainHeader))
}
