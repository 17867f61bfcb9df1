// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package provider

// Kind identifies an image generation backend.
type Kind string

const (
	// MeiGen is the hosted MeiGen platform, enabled by a platform token.
	MeiGen Kind = "meigen"
	// ComfyUI is a local ComfyUI instance, enabled by installed workflow files.
	ComfyUI Kind = "comfyui"
	// OpenAI is any OpenAI-compatible images endpoint, enabled by an API key.
	OpenAI Kind = "openai"
)

// Priority is the fixed resolution order, highest first. It is a business
// ordering and must not be sorted.
var Priority = []Kind{MeiGen, ComfyUI, OpenAI}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case MeiGen, ComfyUI, OpenAI:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }

// Probe reports whether local ComfyUI workflow definitions exist.
type Probe func() bool

// Signals are the configuration-derived availability inputs. ComfyUI has no
// field here: its signal comes from the Probe.
type Signals struct {
	MeiGenToken string
	OpenAIKey   string
}

// Available returns every usable kind in Priority order. All three signals are
// evaluated; a nil probe counts as "no workflows".
func Available(sig Signals, probe Probe) []Kind {
	ok := evaluate(sig, probe)
	kinds := make([]Kind, 0, len(Priority))
	for _, k := range Priority {
		if ok[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Default returns the highest-priority usable kind. The boolean is false when
// nothing is configured.
func Default(sig Signals, probe Probe) (Kind, bool) {
	if avail := Available(sig, probe); len(avail) > 0 {
		return avail[0], true
	}
	return "", false
}

func evaluate(sig Signals, probe Probe) map[Kind]bool {
	return map[Kind]bool{
		MeiGen:  sig.MeiGenToken != "",
		ComfyUI: probe != nil && probe(),
		OpenAI:  sig.OpenAIKey != "",
	}
}
