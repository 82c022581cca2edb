// Package signature computes the HMAC request signatures expected by the Resizor image API.
//
// Parameters are canonicalized by sorting keys lexicographically and joining
// key=value pairs with "&". The canonical string is signed with HMAC-SHA256 (or
// HMAC-SHA1 when configured) keyed by the account secret and rendered as
// lowercase hex.
//
//	signer := signature.New(signature.WithSecretKey("secret"))
//	sig, err := signer.Sign(signature.Params{"timestamp": "1700000000"})
//
// The secret key is never transmitted; only the resulting signature travels
// with the request.
package signature
