package render

import (
	"encoding/json"
	"io"
	"sync"
)

// JSON writes one frame per line.
type JSON struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSON creates a JSON renderer writing to w.
func NewJSON(w io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(w)}
}

// Render writes f as a single line.
func (r *JSON) Render(f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(f)
}
