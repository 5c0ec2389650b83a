package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/playerhub/internal/models"
)

type memorySink struct {
	records [][2]string
	mu      sync.Mutex
}

func (m *memorySink) Record(message, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, [2]string{message, source})
}

func (m *memorySink) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func TestMultiForwardsToAll(t *testing.T) {
	a, b := &memorySink{}, &memorySink{}
	Multi{a, nil, b}.Record("hello", "1.2.3.4")

	assert.Equal(t, [][2]string{{"hello", "1.2.3.4"}}, a.records)
	assert.Equal(t, a.records, b.records)
}

func TestFileSinkAppendsJSONLines(t *testing.T) {
	dir := t.TempDir()

	sink, err := OpenFile(dir, "NA")
	require.NoError(t, err)
	sink.Record("Initiating SIGNIN for player", "132.168.2.22")
	sink.Record("Successfully signed in player with username -- 'whiteallen7'", "132.168.2.22")
	require.NoError(t, sink.Close())

	// Reopening appends rather than truncating.
	sink, err = OpenFile(dir, "NA")
	require.NoError(t, err)
	sink.Record("third", "Admin@NA")
	require.NoError(t, sink.Close())

	f, err := os.Open(FilePath(dir, "NA"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 3)

	assert.Equal(t, "NA", lines[0]["region"])
	assert.Equal(t, "132.168.2.22", lines[0]["source"])
	assert.Equal(t, "Initiating SIGNIN for player", lines[0]["message"])
	assert.Equal(t, "Admin@NA", lines[2]["source"])
	assert.Contains(t, lines[2], "time")
}

type fakeStore struct {
	err     error
	entries []models.AuditEntry
}

func (f *fakeStore) InsertAudit(e models.AuditEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

type fakeLocator map[string]string

func (f fakeLocator) GetCountryCode(ip string) string { return f[ip] }

func TestStoreSinkEnrichesCountry(t *testing.T) {
	store := &fakeStore{}
	sink := NewStoreSink(store, fakeLocator{"93.168.2.22": "DE"}, "EU")

	sink.Record("created", "93.168.2.22")
	sink.Record("status", "Admin@EU")

	require.Len(t, store.entries, 2)
	assert.Equal(t, "DE", store.entries[0].CountryCode)
	assert.Equal(t, "EU", store.entries[0].Region)
	assert.Empty(t, store.entries[1].CountryCode)
	assert.False(t, store.entries[0].CreatedAt.IsZero())
}

func TestStoreSinkSwallowsErrors(t *testing.T) {
	sink := NewStoreSink(&fakeStore{err: errors.New("disk full")}, nil, "EU")
	assert.NotPanics(t, func() { sink.Record("x", "y") })
}

func TestAsyncDeliversEverythingBeforeStop(t *testing.T) {
	next := &memorySink{}
	async := NewAsync(next, 100, 3)
	async.Start()

	for i := 0; i < 50; i++ {
		async.Record("msg", "src")
	}
	async.Stop()

	assert.Equal(t, 50, next.len())

	// Records after stop are ignored, and stopping twice is safe.
	async.Record("late", "src")
	async.Stop()
	assert.Equal(t, 50, next.len())
}

func TestAsyncDropsWhenFull(t *testing.T) {
	next := &memorySink{}
	async := NewAsync(next, 2, 1)

	// Workers not started: the queue fills up and further records are dropped.
	for i := 0; i < 5; i++ {
		async.Record("msg", "src")
	}
	async.Start()
	async.Stop()

	assert.Equal(t, 2, next.len())
}
