// Package httputil holds the request and response plumbing of the HTTP API.
//
// # Requests
//
// [DecodeBody] reads a batch document from a request body. The format
// follows the Content-Type header:
//
//   - application/json (default when the header is missing)
//   - application/toml
//   - application/yaml, application/x-yaml, text/yaml
//
// Bodies are capped at [MaxBodyBytes] unless a different limit is given.
//
// # Responses
//
// [WriteJSON] writes a JSON value with a status code. [WriteError] maps an
// error to a status code through its pkg/errors code and writes it as
//
//	{"code": "INVALID_PARAMS", "message": "..."}
//
// Input problems become 4xx responses; sink and internal failures become
// 500 and their message is not exposed.
package httputil
