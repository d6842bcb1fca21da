package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RouteLeg 두 지점 사이의 이동 정보
type RouteLeg struct {
	FromLat  float64 `json:"fromLat"`
	FromLng  float64 `json:"fromLng"`
	ToLat    float64 `json:"toLat"`
	ToLng    float64 `json:"toLng"`
	Duration float64 `json:"duration"` // 초
	Distance float64 `json:"distance"` // 미터
}

// RedisClient 경로 계산 결과 캐싱용 Redis 래퍼
type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient creates a new Redis client
func NewRedisClient(addr, password string, ttl time.Duration) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("[Redis] Connected to %s", addr)
	return &RedisClient{client: client, ttl: ttl}, nil
}

// legKey 좌표쌍 기반 캐시 키. 좌표는 소수 5자리(약 1m)로 반올림해서 같은
// 장소 간 경로가 한 키로 모이게 한다.
func legKey(fromLat, fromLng, toLat, toLng float64) string {
	return fmt.Sprintf("route:leg:%.5f,%.5f:%.5f,%.5f", fromLat, fromLng, toLat, toLng)
}

// GetLeg 캐시된 경로 조회. 미스면 (nil, nil).
func (r *RedisClient) GetLeg(ctx context.Context, fromLat, fromLng, toLat, toLng float64) (*RouteLeg, error) {
	val, err := r.client.Get(ctx, legKey(fromLat, fromLng, toLat, toLng)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var leg RouteLeg
	if err := json.Unmarshal([]byte(val), &leg); err != nil {
		return nil, err
	}
	return &leg, nil
}

// SetLeg 경로 계산 결과 저장
func (r *RedisClient) SetLeg(ctx context.Context, leg *RouteLeg) error {
	data, err := json.Marshal(leg)
	if err != nil {
		return err
	}

	key := legKey(leg.FromLat, leg.FromLng, leg.ToLat, leg.ToLng)
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		log.Printf("[Redis] Failed to cache route leg: %v", err)
		return err
	}
	return nil
}

// Client 내부 Redis 클라이언트 노출 (헬스체크, presence 공유용)
func (r *RedisClient) Client() *redis.Client {
	return r.client
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Health checks if Redis is healthy
func (r *RedisClient) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
