// Package config loads environment variables into tagged configuration
// structs. Every component Config in this module carries env tags with
// envDefault fallbacks, so a zero-setup run works out of the box:
//
//	var cfg session.Config
//	if err := config.Load(&cfg); err != nil { ... }
//
// A .env file in the working directory is loaded once, best effort, before
// the first parse.
package config
