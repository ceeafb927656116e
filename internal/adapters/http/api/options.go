package api

// Option configures the TOI handler.
type Option func(*TOIHandler)

// WithMaxBodyBytes caps the accepted request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(h *TOIHandler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}
