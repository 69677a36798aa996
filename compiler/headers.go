package compiler

import "strings"

// Kernel headers requested by generated code.
const (
	HeaderArray     = "kernel/array"
	HeaderOperators = "kernel/operators"
	HeaderMemory    = "kernel/memory"
	HeaderFcall     = "kernel/fcall"
	HeaderHash      = "kernel/hash"
	HeaderRequire   = "kernel/require"
	HeaderException = "kernel/exception"
)

// HeadersManager collects the support headers a unit needs, in the
// order they were first requested.
type HeadersManager struct {
	order []string
	seen  map[string]bool
}

// NewHeadersManager creates an empty manager.
func NewHeadersManager() *HeadersManager {
	return &HeadersManager{seen: make(map[string]bool)}
}

// Add requests a header. Duplicate requests are ignored.
func (h *HeadersManager) Add(path string) {
	if h.seen[path] {
		return
	}
	h.seen[path] = true
	h.order = append(h.order, path)
}

// Has reports whether path was requested.
func (h *HeadersManager) Has(path string) bool { return h.seen[path] }

// Headers returns the requested headers.
func (h *HeadersManager) Headers() []string {
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// Includes renders the headers as #include lines.
func (h *HeadersManager) Includes() string {
	var sb strings.Builder
	for _, path := range h.order {
		sb.WriteString(`#include "` + path + `.h"` + "\n")
	}
	return sb.String()
}
