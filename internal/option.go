package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config          *Config
	firstCollection string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithFirstCollection sets the name of the collection created on first run,
// when the registry is empty.
func WithFirstCollection(name string) Option {
	return func(a *application) {
		a.firstCollection = name
	}
}
