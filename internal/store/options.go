package store

// Option configures the file stores.
type Option func(*options)

type options struct {
	kdf kdfParams
}

// WithScryptCost overrides the scrypt CPU/memory cost N (a power of two).
// Low values are only suitable for tests.
func WithScryptCost(n int) Option {
	return func(o *options) { o.kdf.N = n }
}

func buildOptions(opts []Option) options {
	o := options{kdf: defaultKDF()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
