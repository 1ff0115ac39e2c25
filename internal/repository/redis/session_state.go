package redis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/redis/go-redis/v9"
)

// Key patterns for Redis session state.
func stateKey(sessionID string) string    { return "session:" + sessionID + ":state" }
func versionKey(sessionID string) string  { return "session:" + sessionID + ":version" }
func presenceKey(sessionID string) string { return "session:" + sessionID + ":present" }

// sessionTTL keeps abandoned sessions from accumulating forever.
// Every successful write refreshes it.
const sessionTTL = 48 * time.Hour

// waitPollInterval is how often WaitForSnapshot re-checks the cache
// while a joining client blocks on the host's first snapshot.
const waitPollInterval = 250 * time.Millisecond

// putSnapshot stores the payload only if its version is strictly higher
// than the cached one. Both keys move together so readers never see a
// snapshot paired with a stale version.
var putSnapshotScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[2]) or '0')
local ver = tonumber(ARGV[1])
if ver <= cur then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'EX', ARGV[3])
redis.call('SET', KEYS[2], ARGV[1], 'EX', ARGV[3])
return 1
`)

// PutSnapshot stores a gzip-compressed state snapshot at the given
// version. Returns false when a higher or equal version is already
// cached, in which case the caller should fetch and adopt it.
func (c *Client) PutSnapshot(ctx context.Context, sessionID string, version uint64, snapshot json.RawMessage) (bool, error) {
	compressed, err := compress(snapshot)
	if err != nil {
		return false, fmt.Errorf("compress snapshot: %w", err)
	}
	keys := []string{stateKey(sessionID), versionKey(sessionID)}
	res, err := putSnapshotScript.Run(ctx, c.rdb, keys,
		version, compressed, int(sessionTTL.Seconds())).Int()
	if err != nil {
		return false, fmt.Errorf("put snapshot: %w", err)
	}
	return res == 1, nil
}

// GetSnapshot retrieves the cached snapshot and its version.
// A missing session yields a nil snapshot and version zero.
func (c *Client) GetSnapshot(ctx context.Context, sessionID string) (json.RawMessage, uint64, error) {
	pipe := c.rdb.Pipeline()
	stateCmd := pipe.Get(ctx, stateKey(sessionID))
	versionCmd := pipe.Get(ctx, versionKey(sessionID))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, 0, fmt.Errorf("get snapshot: %w", err)
	}

	data, err := stateCmd.Bytes()
	if err == redis.Nil {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get snapshot: %w", err)
	}
	version, err := versionCmd.Uint64()
	if err != nil && err != redis.Nil {
		return nil, 0, fmt.Errorf("get snapshot version: %w", err)
	}

	raw, err := decompress(data)
	if err != nil {
		return nil, 0, fmt.Errorf("decompress snapshot: %w", err)
	}
	return raw, version, nil
}

// WaitForSnapshot polls until a snapshot appears for the session or the
// timeout elapses. Used by joining clients while the host finishes setup.
func (c *Client) WaitForSnapshot(ctx context.Context, sessionID string, timeout time.Duration) (json.RawMessage, uint64, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	for {
		snapshot, version, err := c.GetSnapshot(ctx, sessionID)
		if err != nil {
			return nil, 0, err
		}
		if snapshot != nil {
			return snapshot, version, nil
		}
		if time.Now().After(deadline) {
			return nil, 0, fmt.Errorf("no state for session %s after %s", sessionID, timeout)
		}
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		case <-ticker.C:
		}
	}
}

// MarkPresent records that a user is connected to the session.
func (c *Client) MarkPresent(ctx context.Context, sessionID, userID string) error {
	pipe := c.rdb.Pipeline()
	pipe.SAdd(ctx, presenceKey(sessionID), userID)
	pipe.Expire(ctx, presenceKey(sessionID), sessionTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// MarkAbsent removes a user from the session's presence set.
func (c *Client) MarkAbsent(ctx context.Context, sessionID, userID string) error {
	return c.rdb.SRem(ctx, presenceKey(sessionID), userID).Err()
}

// Present returns the users currently connected to the session.
func (c *Client) Present(ctx context.Context, sessionID string) ([]string, error) {
	return c.rdb.SMembers(ctx, presenceKey(sessionID)).Result()
}

// DeleteSessionData removes all Redis data for a session (on session end).
func (c *Client) DeleteSessionData(ctx context.Context, sessionID string) error {
	keys := []string{stateKey(sessionID), versionKey(sessionID), presenceKey(sessionID)}
	return c.rdb.Del(ctx, keys...).Err()
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
