package contextKey

// key is unexported so no other package can collide with our context values.
type key string

// UserIDKey holds the authenticated user's id, as a hex string, once the JWT
// middleware has validated the request's token.
const UserIDKey key = "userID"

// JwtErrorKey holds the JWT parsing or validation error, when one occurred.
const JwtErrorKey key = "jwtError"
