package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	aimock "github.com/samadon1/cactus-embedder/ai/mock"
	"github.com/samadon1/cactus-embedder/checkpoint"
	"github.com/samadon1/cactus-embedder/core"
	"github.com/samadon1/cactus-embedder/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		TextField:  "question",
		BatchSize:  100,
		Resume:     true,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}
}

func newTestPipeline(provider *aimock.MockProvider, config *Config, observer Observer) *Pipeline {
	return NewPipeline(input.NewLoader(nil, 0, 0), checkpoint.NewStore(), provider, config, observer)
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readOutput(t *testing.T, path string) *core.Document {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := core.NewDocument()
	require.NoError(t, json.Unmarshal(data, doc))
	return doc
}

func outputItems(t *testing.T, doc *core.Document, itemsKey string) []*core.Document {
	t.Helper()
	arr, err := doc.GetArray(itemsKey)
	require.NoError(t, err)
	items := make([]*core.Document, len(arr))
	for i, e := range arr {
		items[i] = e.(*core.Document)
	}
	return items
}

type recordingObserver struct {
	mu      sync.Mutex
	updates []string
}

func (r *recordingObserver) Progress(processed, total int, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, status)
}

func (r *recordingObserver) count(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.updates {
		if strings.HasPrefix(u, prefix) {
			n++
		}
	}
	return n
}

func TestPipeline_EmbedsAllItems(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.json", `{"items":[{"id":"1","question":"A"},{"id":"2","question":"B"}]}`)
	out := filepath.Join(dir, "out.json")

	provider := aimock.NewMockProvider()
	provider.MockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		switch text {
		case "A":
			return []float32{0.1, 0.2}, nil
		case "B":
			return []float32{0.3, 0.4}, nil
		}
		return nil, errors.New("unexpected text")
	}

	pipe := newTestPipeline(provider, testConfig(), nil)
	res, err := pipe.Run(context.Background(), core.InputTypeRecords, in, out)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Embedded)
	assert.Zero(t, res.Resumed)
	assert.Zero(t, res.Failed)

	doc := readOutput(t, out)
	items := outputItems(t, doc, "items")
	require.Len(t, items, 2)
	assert.JSONEq(t, `[0.1,0.2]`, marshalField(t, items[0], "embeddings"))
	assert.JSONEq(t, `[0.3,0.4]`, marshalField(t, items[1], "embeddings"))

	meta, err := doc.GetDocument(checkpoint.MetadataKey)
	require.NoError(t, err)
	total, err := meta.GetInt("total_items")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	embedded, err := meta.GetInt("embedded_count")
	require.NoError(t, err)
	assert.Equal(t, 2, embedded)
}

func marshalField(t *testing.T, doc *core.Document, key string) string {
	t.Helper()
	v, ok := doc.Get(key)
	require.True(t, ok, "field %q missing", key)
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestPipeline_ResumeIdempotence(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.json",
		`{"items":[{"id":"1","question":"A"},{"id":"2","question":"B"},{"id":"3","question":"C"}]}`)
	out := filepath.Join(dir, "out.json")

	provider := aimock.NewMockProvider()
	pipe := newTestPipeline(provider, testConfig(), nil)

	_, err := pipe.Run(context.Background(), core.InputTypeRecords, in, out)
	require.NoError(t, err)
	firstCalls := provider.MockEmbedder().CallCount()
	assert.Equal(t, 3, firstCalls)

	firstItems := itemsJSON(t, out, "items")

	// Second run: everything resumes, zero provider calls
	res, err := pipe.Run(context.Background(), core.InputTypeRecords, in, out)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Resumed)
	assert.Zero(t, res.Embedded)
	assert.Equal(t, firstCalls, provider.MockEmbedder().CallCount(), "resumed run must not call the provider")

	// Item arrays are byte-for-byte identical across the two runs
	assert.Equal(t, firstItems, itemsJSON(t, out, "items"))
}

func itemsJSON(t *testing.T, path, itemsKey string) string {
	t.Helper()
	doc := readOutput(t, path)
	arr, err := doc.GetArray(itemsKey)
	require.NoError(t, err)
	data, err := json.Marshal(arr)
	require.NoError(t, err)
	return string(data)
}

func TestPipeline_MissingTextFieldPassesThrough(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.json",
		`{"items":[{"id":"1","question":"A"},{"id":"2","note":"no question field"},{"id":"3","question":"  "}]}`)
	out := filepath.Join(dir, "out.json")

	provider := aimock.NewMockProvider()
	pipe := newTestPipeline(provider, testConfig(), nil)

	res, err := pipe.Run(context.Background(), core.InputTypeRecords, in, out)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Embedded)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 1, provider.MockEmbedder().CallCount(), "skipped items are not retried")

	doc := readOutput(t, out)
	items := outputItems(t, doc, "items")
	require.Len(t, items, 3)

	// Passed-through item keeps all original fields and gains nothing
	assert.Equal(t, []string{"id", "note"}, items[1].Keys())
	assert.False(t, core.HasEmbedding(items[1]))

	meta, err := doc.GetDocument(checkpoint.MetadataKey)
	require.NoError(t, err)
	embedded, err := meta.GetInt("embedded_count")
	require.NoError(t, err)
	assert.Equal(t, 1, embedded, "embedded_count excludes pass-through items")
}

func TestPipeline_ProviderFailureIsIsolated(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.json",
		`{"items":[{"id":"1","question":"A"},{"id":"2","question":"BAD"},{"id":"3","question":"C"}]}`)
	out := filepath.Join(dir, "out.json")

	provider := aimock.NewMockProvider()
	provider.MockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "BAD" {
			return nil, errors.New("provider exploded")
		}
		return []float32{0.5}, nil
	}

	pipe := newTestPipeline(provider, testConfig(), nil)
	res, err := pipe.Run(context.Background(), core.InputTypeRecords, in, out)
	require.NoError(t, err, "a single item's failure never aborts the run")

	assert.Equal(t, 2, res.Embedded)
	assert.Equal(t, 1, res.Failed)

	items := outputItems(t, readOutput(t, out), "items")
	assert.True(t, core.HasEmbedding(items[0]))
	assert.False(t, core.HasEmbedding(items[1]))
	assert.True(t, core.HasEmbedding(items[2]))
}

func TestPipeline_OrderPreservedOnResume(t *testing.T) {
	dir := t.TempDir()

	var ids []string
	var b strings.Builder
	b.WriteString(`{"items":[`)
	for i := 1; i <= 100; i++ {
		if i > 1 {
			b.WriteString(",")
		}
		id := "q" + strconv.Itoa(i)
		ids = append(ids, id)
		b.WriteString(`{"id":"` + id + `","question":"text ` + strconv.Itoa(i) + `"}`)
	}
	b.WriteString(`]}`)
	in := writeInput(t, dir, "in.json", b.String())
	out := filepath.Join(dir, "out.json")

	// First run embeds only the first 50 items
	provider := aimock.NewMockProvider()
	calls := 0
	provider.MockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		calls++
		if calls > 50 {
			return nil, errors.New("quota exhausted")
		}
		return []float32{float32(calls)}, nil
	}

	pipe := newTestPipeline(provider, testConfig(), nil)
	res, err := pipe.Run(context.Background(), core.InputTypeRecords, in, out)
	require.NoError(t, err)
	require.Equal(t, 50, res.Embedded)

	// Second run fills in the rest
	provider.MockEmbedder().EmbedTextFunc = nil
	provider.MockEmbedder().Reset()
	res, err = pipe.Run(context.Background(), core.InputTypeRecords, in, out)
	require.NoError(t, err)
	assert.Equal(t, 50, res.Resumed)
	assert.Equal(t, 50, res.Embedded)
	assert.Equal(t, 50, provider.MockEmbedder().CallCount())

	// Output order is exactly the input order
	items := outputItems(t, readOutput(t, out), "items")
	require.Len(t, items, 100)
	for i, item := range items {
		assert.Equal(t, ids[i], core.ItemID(item, i), "item %d out of order", i)
		assert.True(t, core.HasEmbedding(item), "item %d missing embedding", i)
	}
}

func TestPipeline_InputEmbeddingsNeverOverwritten(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.json",
		`{"items":[{"id":"1","question":"A","embeddings":[9.9]},{"id":"2","question":"B"}]}`)
	out := filepath.Join(dir, "out.json")

	provider := aimock.NewMockProvider()
	pipe := newTestPipeline(provider, testConfig(), nil)

	res, err := pipe.Run(context.Background(), core.InputTypeRecords, in, out)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Resumed)
	assert.Equal(t, 1, res.Embedded)
	assert.Equal(t, 1, provider.MockEmbedder().CallCount())

	items := outputItems(t, readOutput(t, out), "items")
	assert.JSONEq(t, `[9.9]`, marshalField(t, items[0], "embeddings"))
}

func TestPipeline_CheckpointInterval(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.json",
		`{"items":[{"id":"1","question":"a"},{"id":"2","question":"b"},{"id":"3","question":"c"},{"id":"4","question":"d"},{"id":"5","question":"e"}]}`)
	out := filepath.Join(dir, "out.json")

	config := testConfig()
	config.BatchSize = 2

	observer := &recordingObserver{}
	pipe := newTestPipeline(aimock.NewMockProvider(), config, observer)

	_, err := pipe.Run(context.Background(), core.InputTypeRecords, in, out)
	require.NoError(t, err)

	// 5 new items with interval 2: checkpoints after items 2 and 4
	assert.Equal(t, 2, observer.count("checkpoint saved"))
	assert.Equal(t, 5, observer.count("embedded "))
}

func TestPipeline_FinalSaveOnFullyResumedRun(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.json", `{"items":[{"id":"1","question":"A"}]}`)
	out := filepath.Join(dir, "out.json")

	pipe := newTestPipeline(aimock.NewMockProvider(), testConfig(), nil)
	_, err := pipe.Run(context.Background(), core.InputTypeRecords, in, out)
	require.NoError(t, err)

	before, err := os.Stat(out)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	res, err := pipe.Run(context.Background(), core.InputTypeRecords, in, out)
	require.NoError(t, err)
	assert.Zero(t, res.Embedded)

	after, err := os.Stat(out)
	require.NoError(t, err)
	assert.NotEqual(t, before.ModTime(), after.ModTime(), "final save happens even with zero new items")
}

func TestPipeline_ResumeDisabled(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.json", `{"items":[{"id":"1","question":"A"}]}`)
	out := filepath.Join(dir, "out.json")

	provider := aimock.NewMockProvider()
	config := testConfig()
	pipe := newTestPipeline(provider, config, nil)

	_, err := pipe.Run(context.Background(), core.InputTypeRecords, in, out)
	require.NoError(t, err)
	require.Equal(t, 1, provider.MockEmbedder().CallCount())

	config.Resume = false
	_, err = pipe.Run(context.Background(), core.InputTypeRecords, in, out)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.MockEmbedder().CallCount(), "resume disabled re-embeds")
}

func TestPipeline_FatalOnMissingInput(t *testing.T) {
	pipe := newTestPipeline(aimock.NewMockProvider(), testConfig(), nil)
	_, err := pipe.Run(context.Background(), core.InputTypeRecords,
		filepath.Join(t.TempDir(), "absent.json"), filepath.Join(t.TempDir(), "out.json"))
	assert.Error(t, err)
}

func TestPipeline_Cancellation(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.json",
		`{"items":[{"id":"1","question":"A"},{"id":"2","question":"B"}]}`)
	out := filepath.Join(dir, "out.json")

	ctx, cancel := context.WithCancel(context.Background())
	provider := aimock.NewMockProvider()
	provider.MockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		cancel() // cancel during the first provider call
		return []float32{0.1}, nil
	}

	pipe := newTestPipeline(provider, testConfig(), nil)
	_, err := pipe.Run(ctx, core.InputTypeRecords, in, out)
	assert.ErrorIs(t, err, context.Canceled)
}
