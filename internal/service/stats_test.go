package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulsguard/guard-bot-go/internal/clock"
	"github.com/soulsguard/guard-bot-go/internal/model"
	"github.com/soulsguard/guard-bot-go/internal/repository"
)

type fakeAggRepo struct {
	rows map[string]*model.DailyAggregate // key: day/user
}

func newFakeAggRepo() *fakeAggRepo {
	return &fakeAggRepo{rows: map[string]*model.DailyAggregate{}}
}

func aggKey(userID int64, day string) string {
	return day + "/" + strconv.FormatInt(userID, 10)
}

func (f *fakeAggRepo) put(a model.DailyAggregate) {
	f.rows[aggKey(a.UserID, a.Day)] = &a
}

func (f *fakeAggRepo) IncrementCounters(_ context.Context, userID int64, day string, d model.AggregateDeltas) error {
	return nil
}

func (f *fakeAggRepo) SetFirstCheckin(_ context.Context, userID int64, day string, at time.Time) error {
	return nil
}

func (f *fakeAggRepo) SetLastCheckout(_ context.Context, userID int64, day string, at time.Time) error {
	return nil
}

func (f *fakeAggRepo) Get(_ context.Context, userID int64, day string) (*model.DailyAggregate, error) {
	return f.rows[aggKey(userID, day)], nil
}

func (f *fakeAggRepo) ListForDay(_ context.Context, day string) ([]model.DailyAggregate, error) {
	var out []model.DailyAggregate
	for _, a := range f.rows {
		if a.Day == day {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAggRepo) WithTx(_ *sqlx.Tx) repository.AggregateRepository { return f }

type capturingSender struct {
	sent []tgbotapi.Chattable
}

func (c *capturingSender) Send(m tgbotapi.Chattable) (tgbotapi.Message, error) {
	c.sent = append(c.sent, m)
	return tgbotapi.Message{}, nil
}

var statsZone = time.FixedZone("TST", int(3.5*3600))

func TestUserStats(t *testing.T) {
	ctx := context.Background()
	fakeClock := clock.NewFake(time.Date(2025, 6, 10, 15, 0, 0, 0, statsZone), statsZone)
	aggs := newFakeAggRepo()
	aggs.put(model.DailyAggregate{
		UserID: 5, Day: "2025-06-10", MessageCount: 12, ChatSeconds: 3600,
	})
	aggs.put(model.DailyAggregate{
		UserID: 5, Day: "2025-06-09", MessageCount: 3, CallSeconds: 120,
	})

	svc := NewStatsService(aggs, newFakeRoleRepo(), fakeClock, &capturingSender{}, -100)

	text, err := svc.UserStats(ctx, 5, 3)
	require.NoError(t, err)

	assert.Contains(t, text, "2025-06-10\nmessages: 12 | chat: 1h00m | call: 0s")
	assert.Contains(t, text, "2025-06-09\nmessages: 3 | chat: 0s | call: 2m")
	// The day with no row still renders, as zeros.
	assert.Contains(t, text, "2025-06-08\nmessages: 0 | chat: 0s | call: 0s")
}

func TestSendNightlyReport(t *testing.T) {
	ctx := context.Background()
	fakeClock := clock.NewFake(time.Date(2025, 6, 11, 0, 0, 1, 0, statsZone), statsZone)

	roles := newFakeRoleRepo()
	require.NoError(t, roles.Grant(ctx, 5, model.RoleAdminChat))
	require.NoError(t, roles.Grant(ctx, 6, model.RoleAdminCall))

	aggs := newFakeAggRepo()
	aggs.put(model.DailyAggregate{
		UserID: 5, Day: "2025-06-10", MessageCount: 40, ReplySentCount: 7, ChatSeconds: 5400,
	})
	aggs.put(model.DailyAggregate{
		UserID: 6, Day: "2025-06-10", CallSessionCount: 2, CallSeconds: 7200,
	})

	sender := &capturingSender{}
	svc := NewStatsService(aggs, roles, fakeClock, sender, -100)

	require.NoError(t, svc.SendNightlyReport(ctx, "2025-06-10"))

	require.Len(t, sender.sent, 1)
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(-100), msg.ChatID)
	assert.Contains(t, msg.Text, "2025-06-10")
	assert.Contains(t, msg.Text, "messages: 40 | replies: 7 | chat: 1h30m")
	assert.Contains(t, msg.Text, "calls: 2 | call time: 2h00m")
	assert.Contains(t, msg.Text, "tg://user?id=5")
	assert.Contains(t, msg.Text, "tg://user?id=6")
}

func TestSummaryForDay(t *testing.T) {
	ctx := context.Background()
	aggs := newFakeAggRepo()
	aggs.put(model.DailyAggregate{UserID: 5, Day: "2025-06-10", MessageCount: 1})

	svc := NewStatsService(aggs, newFakeRoleRepo(), clock.NewFake(time.Now(), statsZone), &capturingSender{}, -100)

	rows, err := svc.SummaryForDay(ctx, "2025-06-10")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = svc.SummaryForDay(ctx, "1999-01-01")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
