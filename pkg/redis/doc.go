// Package redis connects the session subsystem to a Redis server. Redis is
// the shared backend of choice when several execution contexts need one
// token store and one failed-attempt budget: the tokenstore and ratelimit
// packages both accept the client this package produces.
//
// Connect retries until the server answers a ping or the attempts run out;
// Healthcheck wraps the same ping for liveness probes. Config is populated
// from the environment via github.com/caarlos0/env.
package redis
