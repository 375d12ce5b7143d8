// Package config loads evtsrc configuration with Viper.
//
// Values come from a YAML file (found in the usual cmd/<service>, config/
// and working-directory locations or given explicitly), an optional .env
// file, and EVTSRC_-prefixed environment variables, in increasing order of
// precedence. Nested keys map to environment names by upper-casing and
// replacing dots with underscores:
//
//	producer.heartbeat  ->  EVTSRC_PRODUCER_HEARTBEAT
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("evtsrc", &cfg, config.WithConfigFile("config.yml"))
package config
