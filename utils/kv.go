package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Short-lived key/value state (flashes, revoked sessions, captcha answers). Redis is preferred;
// without it the values live in this process only.

type memEntry struct {
	value     string
	expiresAt time.Time
}

var (
	memKV        = map[string]memEntry{}
	memKVMu      sync.Mutex
	memKVSweptAt time.Time
)

const (
	kvTimeout    = 2 * time.Second
	// kvSweepEvery spaces out the scans that drop expired in-process entries nobody read.
	kvSweepEvery = time.Minute
)

// kvSet stores value under key for ttl.
func kvSet(key, value string, ttl time.Duration) error {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), kvTimeout)
		defer cancel()
		return rc.Set(ctx, key, value, ttl).Err()
	}
	now := time.Now()
	memKVMu.Lock()
	if now.Sub(memKVSweptAt) >= kvSweepEvery {
		sweepExpiredLocked(now)
	}
	memKV[key] = memEntry{value: value, expiresAt: now.Add(ttl)}
	memKVMu.Unlock()
	return nil
}

func sweepExpiredLocked(now time.Time) {
	for key, e := range memKV {
		if now.After(e.expiresAt) {
			delete(memKV, key)
		}
	}
	memKVSweptAt = now
}

// kvGet returns the live value under key.
func kvGet(key string) (string, bool) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), kvTimeout)
		defer cancel()
		v, err := rc.Get(ctx, key).Result()
		if err != nil {
			return "", false
		}
		return v, true
	}
	memKVMu.Lock()
	defer memKVMu.Unlock()
	e, ok := memKV[key]
	if !ok {
		return "", false
	}
	if time.Now().After(e.expiresAt) {
		delete(memKV, key)
		return "", false
	}
	return e.value, true
}

// kvTake returns and removes the value under key so it can be read once.
func kvTake(key string) (string, bool) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), kvTimeout)
		defer cancel()
		// GETDEL needs Redis >= 6.2
		if v, err := rc.GetDel(ctx, key).Result(); err == nil {
			return v, true
		} else if err == redis.Nil {
			return "", false
		}
		script := `local v=redis.call('GET', KEYS[1]); if v then redis.call('DEL', KEYS[1]); end; return v`
		res, err := rc.Eval(ctx, script, []string{key}).Result()
		if err != nil || res == nil {
			return "", false
		}
		s, ok := res.(string)
		return s, ok
	}
	memKVMu.Lock()
	defer memKVMu.Unlock()
	e, ok := memKV[key]
	if !ok {
		return "", false
	}
	delete(memKV, key)
	if time.Now().After(e.expiresAt) {
		return "", false
	}
	return e.value, true
}
