package context

// contextKey prevents collisions with context keys defined in other packages.
type contextKey string
