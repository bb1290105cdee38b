package store

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"fusionmarkt_backend/internal/orders"
)

// RedisLocker sérialise les transitions concurrentes via SET NX sur Redis.
// Le jeton aléatoire garantit qu'on ne relâche jamais le verrou d'un autre
// appelant après expiration du TTL.
type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// script de libération : supprime la clé seulement si elle porte notre jeton
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, orders.ErrTransitionConflict
	}

	release := func() {
		// contexte neuf : la libération doit aboutir même si la requête
		// appelante est déjà annulée
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			log.Printf("⚠️ Libération du verrou %s: %v", key, err)
		}
	}
	return release, nil
}
