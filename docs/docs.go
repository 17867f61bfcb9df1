// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package docs embeds the OpenAPI description of the HTTP adapter.
package docs

import _ "embed"

// OpenAPISpec is the OpenAPI 3 document served at /openapi.json.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
