// Package security builds TLS configurations for stream endpoints.
//
// One TLSConfig shape serves both sides: ClientConfig for consumers dialing
// an https stream (custom CA, client certificate, server name), and
// ServerConfig for the serve command (certificate and key, with CAFile
// turning on mutual TLS).
//
//	cfg := security.TLSConfig{CAFile: "/etc/evtsrc/ca.pem"}
//	tlsConfig, err := cfg.ClientConfig()
package security
