package reminder

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"personal-calendar/internal/config"
	"personal-calendar/internal/mail"
	"personal-calendar/internal/model"
	"personal-calendar/internal/store"
)

type sent struct {
	subject, body, to string
}

type fakeSender struct {
	mu   sync.Mutex
	fail map[string]bool
	out  []sent
}

func (f *fakeSender) Send(_ context.Context, subject, body, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[to] {
		return model.ErrMailDelivery
	}
	f.out = append(f.out, sent{subject, body, to})
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.out)
}

func setup(t *testing.T) store.Repo {
	t.Helper()
	repo, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "calendar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func addUser(t *testing.T, repo store.Repo, name, email string) int64 {
	t.Helper()
	u := &model.User{Username: name, Email: email, PasswordHash: "x"}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u.ID
}

func addEvent(t *testing.T, repo store.Repo, uid int64, title, start string) int64 {
	t.Helper()
	in, err := model.EventInput{Title: title, StartTime: start}.Normalize()
	require.NoError(t, err)
	id, err := repo.CreateEvent(context.Background(), uid, in)
	require.NoError(t, err)
	return id
}

func reminded(t *testing.T, repo store.Repo, id, uid int64) bool {
	t.Helper()
	e, err := repo.GetEvent(context.Background(), id, uid)
	require.NoError(t, err)
	return e.IsReminded
}

func TestScanSendsDueOnly(t *testing.T) {
	repo := setup(t)
	uid := addUser(t, repo, "alice", "alice@example.com")
	due := addEvent(t, repo, uid, "Standup", "2024-06-01 09:00")
	later := addEvent(t, repo, uid, "Review", "2024-06-01 15:00")

	snd := &fakeSender{}
	s, err := New(repo, snd, zap.NewNop(), "@every 1m")
	require.NoError(t, err)

	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.Local)
	n, err := s.Scan(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, snd.out, 1)
	assert.Equal(t, Subject, snd.out[0].subject)
	assert.Equal(t, "alice@example.com", snd.out[0].to)
	assert.Contains(t, snd.out[0].body, "Standup")
	assert.Contains(t, snd.out[0].body, "2024-06-01 09:00:00")

	assert.True(t, reminded(t, repo, due, uid))
	assert.False(t, reminded(t, repo, later, uid))

	// nothing is sent twice
	n, err = s.Scan(context.Background(), now.Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, snd.out, 1)
}

func TestScanFailureIsolatedAndRetried(t *testing.T) {
	repo := setup(t)
	good := addUser(t, repo, "good", "good@example.com")
	bad := addUser(t, repo, "bad", "bad@example.com")
	goodEv := addEvent(t, repo, good, "ok", "2024-06-01 08:00")
	badEv := addEvent(t, repo, bad, "bounce", "2024-06-01 08:00")

	snd := &fakeSender{fail: map[string]bool{"bad@example.com": true}}
	s, err := New(repo, snd, zap.NewNop(), "@every 1m")
	require.NoError(t, err)

	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.Local)
	n, err := s.Scan(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, reminded(t, repo, goodEv, good))
	assert.False(t, reminded(t, repo, badEv, bad))

	// the mailbox recovers, the next cycle picks the event up again
	snd.fail = nil
	n, err = s.Scan(context.Background(), now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, reminded(t, repo, badEv, bad))
}

func TestScanWithoutSMTPLeavesPending(t *testing.T) {
	repo := setup(t)
	uid := addUser(t, repo, "dave", "dave@example.com")
	id := addEvent(t, repo, uid, "Dentist", "2024-06-01 08:00")

	s, err := New(repo, mail.New(config.SMTP{}, zap.NewNop()), zap.NewNop(), "@every 1m")
	require.NoError(t, err)

	n, err := s.Scan(context.Background(), time.Date(2024, 6, 1, 9, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, reminded(t, repo, id, uid))
}

type brokenRepo struct{ calls atomic.Int32 }

func (b *brokenRepo) ListDueReminders(context.Context, string) ([]model.DueReminder, error) {
	if b.calls.Add(1) == 1 {
		panic("boom")
	}
	return nil, errors.New("db down")
}

func (b *brokenRepo) MarkReminded(context.Context, int64) error { return nil }

func TestRunSurvivesFailuresAndStops(t *testing.T) {
	repo := &brokenRepo{}
	s, err := New(repo, &fakeSender{}, zap.NewNop(), "@every 1s")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return repo.calls.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("scanner did not stop")
	}
}

func TestRunSendsOnStart(t *testing.T) {
	repo := setup(t)
	uid := addUser(t, repo, "erin", "erin@example.com")
	addEvent(t, repo, uid, "past", "2001-01-01 08:00")

	snd := &fakeSender{}
	s, err := New(repo, snd, zap.NewNop(), "@every 1m")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.Eventually(t, func() bool { return snd.count() == 1 }, 3*time.Second, 10*time.Millisecond)
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(&brokenRepo{}, &fakeSender{}, zap.NewNop(), "every minute")
	assert.Error(t, err)
}
