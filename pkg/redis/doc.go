// Package redis connects the service to Redis with go-redis/v9. Redis is
// optional for koskit: when REDIS_URL is empty the binary falls back to
// database-only number generation.
package redis
