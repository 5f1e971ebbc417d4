package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

var (
	ErrLockNotConfigured = errors.New("job_lock_not_configured")
	ErrInvalidLease      = errors.New("invalid_job_lease")
)

// Deletes the key only while it still holds this lease's token, so a lease
// that outlived its ttl cannot drop a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out single-holder leases on scheduler jobs so that only one
// replica runs a job per tick.
type Locker struct {
	client *redis.Client
}

// Lease is held until Release or until its ttl lapses.
type Lease struct {
	Job   string
	token string
	owner *Locker
}

func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{client: client}
}

// Acquire returns a lease on job, or nil when another replica holds it.
func (l *Locker) Acquire(ctx context.Context, job string, ttl time.Duration) (*Lease, error) {
	if l == nil || l.client == nil {
		return nil, ErrLockNotConfigured
	}
	job = strings.TrimSpace(job)
	if job == "" || ttl <= 0 {
		return nil, ErrInvalidLease
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, jobLockKey(job), token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &Lease{Job: job, token: token, owner: l}, nil
}

// Release gives the job back. Releasing a nil or expired lease is a no-op.
func (le *Lease) Release(ctx context.Context) error {
	if le == nil || le.owner == nil || le.owner.client == nil {
		return nil
	}
	return releaseScript.Run(ctx, le.owner.client, []string{jobLockKey(le.Job)}, le.token).Err()
}

func jobLockKey(job string) string {
	return lockPrefix + "job:" + job
}
