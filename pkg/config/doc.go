// Package config loads typed service configuration from environment variables.
//
// Every package in koskit that needs settings declares its own struct with
// `env` tags (pg.Config, redis.Config, httpserver.Config, kos.Config) and the
// binary loads each of them through Load:
//
//	var db pg.Config
//	if err := config.Load(&db); err != nil {
//	    return err
//	}
//
// A `.env` file in the working directory is read once before the first parse,
// and values already present in the process environment win over it. Parsed
// structs are cached per type and prefix, so repeated Load calls are cheap and
// always observe the same values. Tests that mutate the environment call Reset.
package config
