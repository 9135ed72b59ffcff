package templatestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereceipt/receipt-templater/pkg/receiptformat"
)

func sampleTemplate() *Template {
	return &Template{
		Segments: []receiptformat.Segment{
			{Content: "Receipt #{id}", Settings: &receiptformat.Directives{Align: receiptformat.AlignCenter, Bold: true}},
			{Content: "{hasDebt:if}Debt: {debt}{hasDebt:endif}"},
		},
	}
}

func repositories(t *testing.T) map[string]Repository {
	file, err := NewFileRepository(filepath.Join(t.TempDir(), "templates.json"))
	require.NoError(t, err)
	return map[string]Repository{
		"file":   file,
		"memory": NewMemoryRepository(nil),
	}
}

func TestRepository_CRUD(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := repo.Get(ctx, "new_order")
			assert.True(t, errors.Is(err, ErrNotFound))

			require.NoError(t, repo.Save(ctx, "new_order", sampleTemplate()))
			require.NoError(t, repo.Save(ctx, "new_service", &Template{Content: "Service {id}"}))

			got, err := repo.Get(ctx, "new_order")
			require.NoError(t, err)
			assert.Equal(t, "new_order", got.Name)
			require.Len(t, got.Segments, 2)
			assert.True(t, got.Segments[0].Directives().Bold)

			names, err := repo.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"new_order", "new_service"}, names)

			require.NoError(t, repo.Delete(ctx, "new_service"))
			assert.True(t, errors.Is(repo.Delete(ctx, "new_service"), ErrNotFound))

			names, err = repo.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"new_order"}, names)
		})
	}
}

func TestRepository_RejectsInvalid(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			assert.True(t, errors.Is(repo.Save(ctx, "../escape", sampleTemplate()), ErrInvalidName))
			assert.Error(t, repo.Save(ctx, "empty", &Template{Segments: []receiptformat.Segment{}}))
		})
	}
}

func TestRepository_ReturnsCopies(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.Save(ctx, "a", sampleTemplate()))

			first, err := repo.Get(ctx, "a")
			require.NoError(t, err)
			first.Segments[0].Content = "changed"

			second, err := repo.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "Receipt #{id}", second.Segments[0].Content)
		})
	}
}

func TestRepository_CanceledContext(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := repo.Get(ctx, "a")
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestFileRepository_PersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "templates.json")
	ctx := context.Background()

	repo, err := NewFileRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, "new_order", sampleTemplate()))

	reopened, err := NewFileRepository(path)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "new_order")
	require.NoError(t, err)
	assert.Len(t, got.Segments, 2)
}

func TestFileRepository_BrokenEntryFailsOnGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	doc := `{"good": {"content": "Hi"}, "broken": {"segments": []}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	repo, err := NewFileRepository(path)
	require.NoError(t, err)

	_, err = repo.Get(context.Background(), "good")
	assert.NoError(t, err)

	_, err = repo.Get(context.Background(), "broken")
	require.Error(t, err)
	var fe *receiptformat.FormatError
	assert.True(t, errors.As(err, &fe))
}

func TestFileRepository_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFileRepository(path)
	assert.Error(t, err)
}

func TestWatch_ReloadsOnExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": {"content": "old"}}`), 0644))

	repo, err := NewFileRepository(path)
	require.NoError(t, err)

	var changes atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, repo, func() { changes.Add(1) }, zerolog.Nop())
	}()

	// Keep rewriting until the watcher is running and has seen a change.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(`{"a": {"content": "new"}}`), 0644)
		got, err := repo.Get(context.Background(), "a")
		return err == nil && got.Content == "new"
	}, 5*time.Second, 50*time.Millisecond)
	assert.Eventually(t, func() bool { return changes.Load() > 0 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
