package common

// Namespace prefixes every key the server writes to the object store.
const Namespace = "paaster"

// IDAlphabet is the character set of public content identifiers.
const IDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// IDLength is the length of a public content identifier.
const IDLength = 6

// RequestIDHeaderName carries the per-request correlation id.
const RequestIDHeaderName = "X-Request-ID"
