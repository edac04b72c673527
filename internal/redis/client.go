package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// ContactKey holds a member's contact-bridge state (mode + can-send)
func ContactKey(userID int64) string {
	return fmt.Sprintf("contact:%d", userID)
}

// ReplyKey holds an admin's pending reply target
func ReplyKey(adminID int64) string {
	return fmt.Sprintf("reply:%d", adminID)
}

// ToggleKey holds an on/off feature flag, e.g. the random poke
func ToggleKey(name string) string {
	return fmt.Sprintf("toggle:%s", name)
}
