package config

import "strings"

type Server struct {
	Addr     string `mapstructure:"addr"`
	BasePath string `mapstructure:"base_path"`
}

// Prefix returns the base path without a trailing slash, ready to be
// prepended to route patterns.
func (s Server) Prefix() string {
	return strings.TrimSuffix(s.BasePath, "/")
}
