// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// ImageGenerationRequest is the body of POST /v1/images/generations
type ImageGenerationRequest struct {
	Prompt          string   `json:"prompt"`                     // Required
	Provider        string   `json:"provider,omitempty"`         // "meigen", "comfyui" or "openai"; default by priority
	Model           string   `json:"model,omitempty"`            // Provider default when empty
	N               int      `json:"n,omitempty"`                // Default 1
	Size            string   `json:"size,omitempty"`             // Default "1024x1024"
	Quality         string   `json:"quality,omitempty"`          // Forwarded as-is
	ReferenceImages []string `json:"reference_images,omitempty"` // Public URLs, ignored by dall-e models
}

// ImageGenerationResponse carries exactly one image
type ImageGenerationResponse struct {
	Object   string `json:"object"`    // Always "image.generation"
	Provider string `json:"provider"`  // Provider that served the request
	MimeType string `json:"mime_type"` // e.g. "image/png"
	B64JSON  string `json:"b64_json"`  // Base64-encoded image bytes
}

// ProvidersResponse lists configured providers
type ProvidersResponse struct {
	Object    string   `json:"object"`    // Always "list"
	Available []string `json:"available"` // Priority order
	Default   *string  `json:"default"`   // null when nothing is configured
}

// UpstreamErrorDetail is attached to errors caused by a provider response
type UpstreamErrorDetail struct {
	Provider string `json:"provider"`
	Status   int    `json:"status"`
	Body     string `json:"body"`
}
