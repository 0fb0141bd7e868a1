package access

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/crewkit/crewkit/pkg/rbac"
)

// CachedResolver wraps a MembershipResolver with a Redis cache.
//
// Only positive results (actual memberships) are cached, and the cache is
// invalidated synchronously by the team service on any role change or
// removal, so a downgraded or removed member is denied on the very next
// decision. The TTL is a backstop, not the coherency mechanism.
type CachedResolver struct {
	inner   MembershipResolver
	redis   *redis.Client
	ttl     time.Duration
	metrics *Metrics
}

// NewCachedResolver creates a Redis-backed membership cache. Wire the
// returned resolver into the Decider and register it as the team service's
// MembershipInvalidator.
func NewCachedResolver(inner MembershipResolver, client *redis.Client, ttl time.Duration, metrics *Metrics) *CachedResolver {
	return &CachedResolver{inner: inner, redis: client, ttl: ttl, metrics: metrics}
}

func membershipKey(teamID, userID int64) string {
	return fmt.Sprintf("membership:%d:%d", teamID, userID)
}

// invalidationTombstone is the value InvalidateMembership writes in place
// of deleting the key. It is not a parseable role, so Resolve treats it as
// a miss, and because repopulation uses SET NX, a resolve that read the
// database before the mutation cannot overwrite it with the stale role.
const invalidationTombstone = "!invalidated"

// tombstoneTTL bounds how long repopulation is suppressed after an
// invalidation. It only needs to outlast database reads that were already
// in flight when the mutation landed.
const tombstoneTTL = 10 * time.Second

// Resolve returns the cached role when present, falling through to the
// inner resolver on a miss. Cache failures degrade to the inner resolver
// rather than failing the decision.
func (c *CachedResolver) Resolve(ctx context.Context, userID, teamID int64) (rbac.Role, error) {
	key := membershipKey(teamID, userID)

	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		if cached == invalidationTombstone {
			// Recently invalidated. Serve from the database and leave the
			// tombstone in place until it expires.
			c.miss()
			return c.inner.Resolve(ctx, userID, teamID)
		}
		if role, parseErr := rbac.ParseRole(cached); parseErr == nil {
			c.hit()
			return role, nil
		}
		// Unparseable entry, drop it and fall through.
		c.redis.Del(ctx, key)
	}
	c.miss()

	role, err := c.inner.Resolve(ctx, userID, teamID)
	if err != nil {
		return "", err
	}

	// SET NX: if an invalidation landed while the database read above was
	// in flight, its tombstone is still present and this write is a no-op.
	c.redis.SetNX(ctx, key, string(role), c.ttl)
	return role, nil
}

// InvalidateMembership replaces the cached role for the (team, user) pair
// with a short-lived tombstone. Called synchronously by the team service
// before a mutation is considered complete; this satisfies
// teams.MembershipInvalidator.
func (c *CachedResolver) InvalidateMembership(teamID, userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.redis.Set(ctx, membershipKey(teamID, userID), invalidationTombstone, tombstoneTTL)
}

func (c *CachedResolver) hit() {
	if c.metrics != nil {
		c.metrics.MembershipCacheHits.Inc()
	}
}

func (c *CachedResolver) miss() {
	if c.metrics != nil {
		c.metrics.MembershipCacheMisses.Inc()
	}
}
