package redis

import "testing"

func TestRedisKey(t *testing.T) {
	got := redisKey("POST /api/tokens/redeem", "abc-123")
	if got != "idem:POST /api/tokens/redeem:abc-123" {
		t.Errorf("unexpected key %q", got)
	}
}
