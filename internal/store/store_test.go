package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-avesta/Eventure-sub001/internal/blob"
	"github.com/team-avesta/Eventure-sub001/internal/geometry"
	"github.com/team-avesta/Eventure-sub001/internal/models"
	"github.com/team-avesta/Eventure-sub001/internal/store"
)

var errDisk = errors.New("disk on fire")

// faultyBlobs wraps a Memory and can fail or intercept calls.
type faultyBlobs struct {
	*blob.Memory
	failGet    bool
	failPut    bool
	failDelete bool
	puts       int
	// afterGet runs once, right after the next successful GetObject.
	afterGet func()
}

func newFaulty() *faultyBlobs { return &faultyBlobs{Memory: blob.NewMemory()} }

func (f *faultyBlobs) GetObject(ctx context.Context, key string) ([]byte, error) {
	if f.failGet {
		return nil, errDisk
	}
	data, err := f.Memory.GetObject(ctx, key)
	if hook := f.afterGet; hook != nil {
		f.afterGet = nil
		hook()
	}
	return data, err
}

func (f *faultyBlobs) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	if f.failPut {
		return errDisk
	}
	f.puts++
	return f.Memory.PutObject(ctx, key, data, contentType)
}

func (f *faultyBlobs) DeleteObject(ctx context.Context, key string) error {
	if f.failDelete {
		return errDisk
	}
	return f.Memory.DeleteObject(ctx, key)
}

type fixture struct {
	blobs *faultyBlobs
	store *store.Store
	clock time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{blobs: newFaulty(), clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	seq := 0
	f.store = store.New(f.blobs,
		store.WithClock(func() time.Time { return f.clock }),
		store.WithIDGenerator(func() string { seq++; return fmt.Sprintf("id-%d", seq) }),
	)
	return f
}

// seed creates module "home" with the named screenshots and returns their ids.
func (f *fixture) seed(t *testing.T, names ...string) []string {
	t.Helper()
	ctx := context.Background()
	_, err := f.store.CreateModule(ctx, "home", "Home")
	require.NoError(t, err)
	ids := make([]string, 0, len(names))
	for _, n := range names {
		sc, err := f.store.AppendScreenshot(ctx, "home", models.Screenshot{
			Name: n,
			URL:  "screenshots/home/" + n + ".png",
		})
		require.NoError(t, err)
		ids = append(ids, sc.ID)
	}
	return ids
}

func trackRegion(id string, x float64) models.Region {
	return models.Region{
		ID:          id,
		Coordinates: geometry.Rect{StartX: x, StartY: 10, Width: 20, Height: 20},
		Details:     models.TrackEvent{Category: "nav", Action: "click", Value: "1"},
		Dimensions:  []string{"d1"},
	}
}

func screenshotOf(t *testing.T, s *store.Store, id string) models.Screenshot {
	t.Helper()
	sc, err := s.GetScreenshot(context.Background(), id)
	require.NoError(t, err)
	return sc
}

// ─────────────────────────────────────
// GetDocument
// ─────────────────────────────────────

func TestGetDocument_FirstRun(t *testing.T) {
	f := setup(t)
	doc, err := f.store.GetDocument(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, doc.Modules)
	assert.Empty(t, doc.Modules)
}

func TestGetDocument_StoredShape(t *testing.T) {
	f := setup(t)
	ids := f.seed(t, "login")
	_, err := f.store.UpsertRegion(context.Background(), ids[0], trackRegion("r1", 10))
	require.NoError(t, err)

	raw, err := f.blobs.Memory.GetObject(context.Background(), store.DefaultKey)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	modules := generic["modules"].([]any)
	require.Len(t, modules, 1)
	sc := modules[0].(map[string]any)["screenshots"].([]any)[0].(map[string]any)
	assert.Equal(t, "home", sc["pageName"])
	assert.Equal(t, "TODO", sc["status"])
	ev := sc["events"].([]any)[0].(map[string]any)
	assert.Equal(t, "trackevent", ev["eventType"])
	assert.Equal(t, "nav", ev["category"])
	assert.Equal(t, map[string]any{"startX": 10.0, "startY": 10.0, "width": 20.0, "height": 20.0}, ev["coordinates"])
}

func TestGetDocument_Corrupt(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.blobs.Memory.PutObject(context.Background(), store.DefaultKey, []byte("{not json"), "application/json"))

	_, err := f.store.GetDocument(context.Background())
	var perr *store.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "decode", perr.Op)
}

// ─────────────────────────────────────
// Regions
// ─────────────────────────────────────

func TestUpsertRegion_Idempotent(t *testing.T) {
	f := setup(t)
	ids := f.seed(t, "login")
	ctx := context.Background()

	for _, id := range []string{"r1", "r2", "r3"} {
		_, err := f.store.UpsertRegion(ctx, ids[0], trackRegion(id, 10))
		require.NoError(t, err)
	}
	_, err := f.store.UpsertRegion(ctx, ids[0], trackRegion("r2", 10))
	require.NoError(t, err)

	sc := screenshotOf(t, f.store, ids[0])
	require.Len(t, sc.Events, 3)
	assert.Equal(t, "r2", sc.Events[1].ID)
}

func TestUpsertRegion_ReplacesInPlace(t *testing.T) {
	f := setup(t)
	ids := f.seed(t, "login")
	ctx := context.Background()

	_, err := f.store.UpsertRegion(ctx, ids[0], trackRegion("r1", 10))
	require.NoError(t, err)
	_, err = f.store.UpsertRegion(ctx, ids[0], trackRegion("r2", 40))
	require.NoError(t, err)

	moved := trackRegion("r1", 70)
	moved.Details = models.Outlink{URL: "https://example.com", Category: "ext", Action: "open"}
	f.clock = f.clock.Add(time.Hour)
	_, err = f.store.UpsertRegion(ctx, ids[0], moved)
	require.NoError(t, err)

	sc := screenshotOf(t, f.store, ids[0])
	require.Len(t, sc.Events, 2)
	assert.Equal(t, "r1", sc.Events[0].ID)
	assert.Equal(t, 70.0, sc.Events[0].Coordinates.StartX)
	assert.Equal(t, models.Outlink{URL: "https://example.com", Category: "ext", Action: "open"}, sc.Events[0].Details)
	assert.Equal(t, f.clock, sc.UpdatedAt)
}

func TestUpsertRegion_Rejects(t *testing.T) {
	f := setup(t)
	ids := f.seed(t, "login", "signup")
	ctx := context.Background()
	_, err := f.store.UpsertRegion(ctx, ids[0], trackRegion("r1", 10))
	require.NoError(t, err)
	puts := f.blobs.puts

	cases := []struct {
		name   string
		target string
		region models.Region
		want   error
	}{
		{"unknown screenshot", "nope", trackRegion("r9", 10), store.ErrScreenshotNotFound},
		{"id owned elsewhere", ids[1], trackRegion("r1", 10), store.ErrRegionIDConflict},
		{"degenerate", ids[0], func() models.Region { r := trackRegion("r9", 10); r.Coordinates.Width = 0; return r }(), models.ErrDegenerateRegion},
		{"out of bounds", ids[0], trackRegion("r9", 90), models.ErrOutOfBounds},
		{"pending", ids[0], func() models.Region { r := trackRegion("r9", 10); r.Details = nil; return r }(), models.ErrMissingEventType},
		{"duplicate dimension", ids[0], func() models.Region { r := trackRegion("r9", 10); r.Dimensions = []string{"a", "a"}; return r }(), models.ErrInvalidRegion},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.store.UpsertRegion(ctx, tc.target, tc.region)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, puts, f.blobs.puts, "rejected upserts never write")
}

func TestDeleteRegion(t *testing.T) {
	f := setup(t)
	ids := f.seed(t, "login")
	ctx := context.Background()
	for _, id := range []string{"r1", "r2"} {
		_, err := f.store.UpsertRegion(ctx, ids[0], trackRegion(id, 10))
		require.NoError(t, err)
	}

	require.NoError(t, f.store.DeleteRegion(ctx, ids[0], "r1"))
	sc := screenshotOf(t, f.store, ids[0])
	require.Len(t, sc.Events, 1)
	assert.Equal(t, "r2", sc.Events[0].ID)
}

func TestDeleteRegion_MissingIsNoop(t *testing.T) {
	f := setup(t)
	ids := f.seed(t, "login")
	ctx := context.Background()
	_, err := f.store.UpsertRegion(ctx, ids[0], trackRegion("r1", 10))
	require.NoError(t, err)
	before := screenshotOf(t, f.store, ids[0])
	puts := f.blobs.puts

	require.NoError(t, f.store.DeleteRegion(ctx, ids[0], "ghost"))
	assert.Equal(t, before, screenshotOf(t, f.store, ids[0]))
	assert.Equal(t, puts, f.blobs.puts)

	assert.ErrorIs(t, f.store.DeleteRegion(ctx, "nope", "r1"), store.ErrScreenshotNotFound)
}

// ─────────────────────────────────────
// Modules and screenshots
// ─────────────────────────────────────

func TestCreateModule(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	m, err := f.store.CreateModule(ctx, " checkout ", "")
	require.NoError(t, err)
	assert.Equal(t, "checkout", m.Key)
	assert.Equal(t, "checkout", m.Name)
	assert.NotNil(t, m.Screenshots)

	_, err = f.store.CreateModule(ctx, "checkout", "Again")
	assert.ErrorIs(t, err, store.ErrModuleExists)
	_, err = f.store.CreateModule(ctx, "  ", "x")
	assert.ErrorIs(t, err, store.ErrInvalidModule)

	got, err := f.store.GetModule(ctx, "checkout")
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	_, err = f.store.GetModule(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrModuleNotFound)
}

func TestAppendScreenshot(t *testing.T) {
	f := setup(t)
	ids := f.seed(t, "a")
	ctx := context.Background()

	sc := screenshotOf(t, f.store, ids[0])
	assert.Equal(t, "home", sc.PageName)
	assert.Equal(t, models.StatusTodo, sc.Status)
	assert.Equal(t, f.clock, sc.CreatedAt)
	assert.NotNil(t, sc.Events)

	_, err := f.store.AppendScreenshot(ctx, "missing", models.Screenshot{Name: "x"})
	assert.ErrorIs(t, err, store.ErrModuleNotFound)
	_, err = f.store.AppendScreenshot(ctx, "home", models.Screenshot{ID: ids[0]})
	assert.ErrorIs(t, err, store.ErrScreenshotExists)
	_, err = f.store.AppendScreenshot(ctx, "home", models.Screenshot{Status: "LATER"})
	assert.ErrorIs(t, err, store.ErrInvalidStatus)
}

func TestReorderScreenshots(t *testing.T) {
	f := setup(t)
	ids := f.seed(t, "a", "b", "c")
	ctx := context.Background()

	want := []string{ids[2], ids[0], ids[1]}
	m, err := f.store.ReorderScreenshots(ctx, "home", want)
	require.NoError(t, err)
	assert.Equal(t, want, screenshotIDs(m))

	stored, err := f.store.GetModule(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, want, screenshotIDs(stored))
}

func TestReorderScreenshots_Mismatch(t *testing.T) {
	f := setup(t)
	ids := f.seed(t, "a", "b", "c")
	ctx := context.Background()

	cases := map[string][]string{
		"missing":   {ids[0], ids[1]},
		"extra":     {ids[0], ids[1], ids[2], "zzz"},
		"unknown":   {ids[0], ids[1], "zzz"},
		"duplicate": {ids[0], ids[0], ids[1]},
	}
	for name, order := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.store.ReorderScreenshots(ctx, "home", order)
			assert.ErrorIs(t, err, store.ErrOrderMismatch)
			m, err := f.store.GetModule(ctx, "home")
			require.NoError(t, err)
			assert.Equal(t, ids, screenshotIDs(m))
		})
	}

	_, err := f.store.ReorderScreenshots(ctx, "nope", ids)
	assert.ErrorIs(t, err, store.ErrModuleNotFound)
}

func TestUpdateScreenshot(t *testing.T) {
	f := setup(t)
	ids := f.seed(t, "a")
	ctx := context.Background()

	name, status, label := "Landing", models.StatusDone, "lbl-1"
	f.clock = f.clock.Add(time.Minute)
	sc, err := f.store.UpdateScreenshot(ctx, ids[0], store.ScreenshotPatch{Name: &name, Status: &status, LabelID: &label})
	require.NoError(t, err)
	assert.Equal(t, "Landing", sc.Name)
	assert.Equal(t, models.StatusDone, sc.Status)
	assert.Equal(t, "lbl-1", sc.LabelID)
	assert.Equal(t, f.clock, sc.UpdatedAt)
	assert.Equal(t, "screenshots/home/a.png", sc.URL)

	bad := models.Status("ARCHIVED")
	_, err = f.store.UpdateScreenshot(ctx, ids[0], store.ScreenshotPatch{Status: &bad})
	assert.ErrorIs(t, err, store.ErrInvalidStatus)
	_, err = f.store.UpdateScreenshot(ctx, "nope", store.ScreenshotPatch{Name: &name})
	assert.ErrorIs(t, err, store.ErrScreenshotNotFound)
}

func TestDeleteScreenshot(t *testing.T) {
	f := setup(t)
	ids := f.seed(t, "a", "b")
	ctx := context.Background()
	require.NoError(t, f.blobs.PutObject(ctx, "screenshots/home/a.png", []byte("img"), "image/png"))

	require.NoError(t, f.store.DeleteScreenshot(ctx, ids[0]))
	m, err := f.store.GetModule(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, ids[1:], screenshotIDs(m))
	_, ok := f.blobs.Stat("screenshots/home/a.png")
	assert.False(t, ok)

	assert.ErrorIs(t, f.store.DeleteScreenshot(ctx, ids[0]), store.ErrScreenshotNotFound)
}

// ─────────────────────────────────────
// ReplaceScreenshotAsset
// ─────────────────────────────────────

func TestReplaceScreenshotAsset_PreservesEvents(t *testing.T) {
	f := setup(t)
	ids := f.seed(t, "a")
	ctx := context.Background()
	require.NoError(t, f.blobs.PutObject(ctx, "screenshots/home/a.png", []byte("old"), "image/png"))
	for i, id := range []string{"r1", "r2", "r3"} {
		_, err := f.store.UpsertRegion(ctx, ids[0], trackRegion(id, float64(10*i)))
		require.NoError(t, err)
	}
	before := screenshotOf(t, f.store, ids[0])

	f.clock = f.clock.Add(time.Hour)
	require.NoError(t, f.blobs.PutObject(ctx, "screenshots/home/b.png", []byte("new"), "image/png"))
	sc, err := f.store.ReplaceScreenshotAsset(ctx, ids[0], store.AssetRef{URL: "screenshots/home/b.png", Width: 1600, Height: 1200})
	require.NoError(t, err)

	assert.Equal(t, "screenshots/home/b.png", sc.URL)
	assert.Equal(t, f.clock, sc.UpdatedAt)
	assert.Equal(t, 1600, sc.Width)
	assert.Equal(t, before.Events, screenshotOf(t, f.store, ids[0]).Events)

	_, ok := f.blobs.Stat("screenshots/home/a.png")
	assert.False(t, ok, "old asset removed")
	_, ok = f.blobs.Stat("screenshots/home/b.png")
	assert.True(t, ok)
}

func TestReplaceScreenshotAsset_WriteFailureKeepsOldAsset(t *testing.T) {
	f := setup(t)
	ids := f.seed(t, "a")
	ctx := context.Background()
	require.NoError(t, f.blobs.PutObject(ctx, "screenshots/home/a.png", []byte("old"), "image/png"))

	f.blobs.failPut = true
	_, err := f.store.ReplaceScreenshotAsset(ctx, ids[0], store.AssetRef{URL: "screenshots/home/b.png"})
	var perr *store.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "put", perr.Op)
	assert.ErrorIs(t, err, errDisk)

	_, ok := f.blobs.Stat("screenshots/home/a.png")
	assert.True(t, ok, "old asset must survive a failed write")
	f.blobs.failPut = false
	assert.Equal(t, "screenshots/home/a.png", screenshotOf(t, f.store, ids[0]).URL)
}

func TestReplaceScreenshotAsset_DeleteFailureIsSwallowed(t *testing.T) {
	f := setup(t)
	ids := f.seed(t, "a")
	f.blobs.failDelete = true

	sc, err := f.store.ReplaceScreenshotAsset(context.Background(), ids[0], store.AssetRef{URL: "screenshots/home/b.png"})
	require.NoError(t, err)
	assert.Equal(t, "screenshots/home/b.png", sc.URL)
}

func TestReplaceScreenshotAsset_Rejects(t *testing.T) {
	f := setup(t)
	ids := f.seed(t, "a")
	ctx := context.Background()

	_, err := f.store.ReplaceScreenshotAsset(ctx, ids[0], store.AssetRef{})
	assert.ErrorIs(t, err, store.ErrInvalidAsset)
	_, err = f.store.ReplaceScreenshotAsset(ctx, "nope", store.AssetRef{URL: "k"})
	assert.ErrorIs(t, err, store.ErrScreenshotNotFound)
}

// ─────────────────────────────────────
// Failure and concurrency semantics
// ─────────────────────────────────────

func TestPersistenceErrors(t *testing.T) {
	f := setup(t)
	ids := f.seed(t, "a")
	ctx := context.Background()

	f.blobs.failGet = true
	_, err := f.store.UpsertRegion(ctx, ids[0], trackRegion("r1", 10))
	var perr *store.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "get", perr.Op)
	assert.Equal(t, store.DefaultKey, perr.Key)
	f.blobs.failGet = false

	f.blobs.failPut = true
	_, err = f.store.UpsertRegion(ctx, ids[0], trackRegion("r1", 10))
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "put", perr.Op)
	f.blobs.failPut = false

	assert.Empty(t, screenshotOf(t, f.store, ids[0]).Events, "failed mutation is not applied")
}

// Two overlapping read-modify-write cycles: the later write is based on a
// stale read and drops the earlier one's region. There is no version check.
func TestConcurrentWritersLoseUpdates(t *testing.T) {
	f := setup(t)
	ids := f.seed(t, "a")
	ctx := context.Background()

	f.blobs.afterGet = func() {
		_, err := f.store.UpsertRegion(ctx, ids[0], trackRegion("from-b", 40))
		require.NoError(t, err)
	}
	_, err := f.store.UpsertRegion(ctx, ids[0], trackRegion("from-a", 10))
	require.NoError(t, err)

	events := screenshotOf(t, f.store, ids[0]).Events
	require.Len(t, events, 1)
	assert.Equal(t, "from-a", events[0].ID)
}

func TestCustomKey(t *testing.T) {
	mem := blob.NewMemory()
	s := store.New(mem, store.WithKey("tenant-1/doc.json"))
	_, err := s.CreateModule(context.Background(), "home", "Home")
	require.NoError(t, err)

	_, ok := mem.Stat("tenant-1/doc.json")
	assert.True(t, ok)
	_, ok = mem.Stat(store.DefaultKey)
	assert.False(t, ok)
}

func screenshotIDs(m models.Module) []string {
	out := make([]string, 0, len(m.Screenshots))
	for _, sc := range m.Screenshots {
		out = append(out, sc.ID)
	}
	return out
}
