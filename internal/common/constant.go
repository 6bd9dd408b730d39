// Package common contains shared constants and sentinel errors used across
// BizKeeper components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access token
// on outbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix prefixes the access token inside the Authorization header.
const BearerPrefix = "Bearer "
