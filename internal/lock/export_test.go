package lock

// RedisClient exports redisClient for fakes.
type RedisClient = redisClient

// NewTestRedis creates a Redis locker around a fake client.
func NewTestRedis(client RedisClient, opts ...RedisOption) *Redis {
	return newRedis(client, opts...)
}
