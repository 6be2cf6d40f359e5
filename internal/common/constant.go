package common

// AuthorizationHeaderName is the HTTP header that carries the bearer token
// on protected requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the expected prefix of the Authorization header value.
const BearerPrefix = "Bearer "

// AssistantDisplayName is the fixed author name stored with every
// assistant-role message.
const AssistantDisplayName = "Gemini"
