// Package signature verifies inbound provider webhooks. The provider signs
// each delivery svix-style: HMAC-SHA256 over "id.timestamp.payload" with a
// base64 secret carried in a whsec_ prefixed string, base64 signatures in a
// space-separated version-prefixed header list.
package signature
