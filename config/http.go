package config

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// AppUpstream is the URL of the page frontend the route guard proxies
	// to. Empty serves 404s behind the guard (API-only deployment).
	AppUpstream string `env:"APP_UPSTREAM" envDefault:""`
}
