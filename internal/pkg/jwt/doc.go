// Package jwt verifies the bearer tokens that guard the admin API.
//
// Tokens are HMAC signed (HS256, HS384 or HS512) by the identity service in
// front of mailbite. The subject is the administrator ID and the optional
// roles claim lists casbin roles granted by the token itself.
package jwt
