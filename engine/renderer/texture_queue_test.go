package renderer

import (
	"context"
	"testing"
	"time"

	"github.com/spaghettifunk/vista/engine/core"
	"github.com/spaghettifunk/vista/engine/math"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidDecoder(name string) TextureDecodeFunc {
	return func(context.Context) (*metadata.TextureDescriptor, error) {
		return metadata.NewSolidDescriptor(name, 2, 10, 20, 30, 255), nil
	}
}

// waitDecoded blocks until n results are ready for upload.
func waitDecoded(t *testing.T, q *TextureLoadQueue, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		q.mutex.Lock()
		count := q.decoded.Len()
		q.mutex.Unlock()
		if count >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d decoded textures", n)
}

func TestTextureLoadQueueSubmitBeforeStart(t *testing.T) {
	q := NewTextureLoadQueue(newFakeBackend(&callLog{}), 4)

	_, err := q.Submit(context.Background(), "early", solidDecoder("early"))
	assert.ErrorIs(t, err, core.ErrDeinitialized)
	assert.False(t, q.Running())
}

func TestTextureLoadQueueUpload(t *testing.T) {
	backend := newFakeBackend(&callLog{})
	q := NewTextureLoadQueue(backend, 4)
	q.Start(context.Background())
	defer q.Stop()

	pending, err := q.Submit(context.Background(), "solid", solidDecoder("solid"))
	require.NoError(t, err)
	assert.Equal(t, "solid", pending.Name())

	waitDecoded(t, q, 1)
	// Decoded but not uploaded yet.
	assert.False(t, pending.Ready())
	assert.Empty(t, backend.textures)

	assert.Equal(t, 1, q.Upload(0))
	require.True(t, pending.Ready())
	tex, err := pending.Result()
	require.NoError(t, err)
	assert.Equal(t, math.NewVector2i(2, 2), tex.Size())
	assert.Len(t, backend.textures, 1)
}

func TestTextureLoadQueueUploadLimit(t *testing.T) {
	q := NewTextureLoadQueue(newFakeBackend(&callLog{}), 8)
	q.Start(context.Background())
	defer q.Stop()

	for _, name := range []string{"a", "b", "c"} {
		_, err := q.Submit(context.Background(), name, solidDecoder(name))
		require.NoError(t, err)
	}
	waitDecoded(t, q, 3)

	assert.Equal(t, 2, q.Upload(2))
	assert.Equal(t, 1, q.Upload(0))
	assert.Equal(t, 0, q.Upload(0))
}

func TestTextureLoadQueueDecodeFailures(t *testing.T) {
	q := NewTextureLoadQueue(newFakeBackend(&callLog{}), 4)
	q.Start(context.Background())
	defer q.Stop()

	empty, err := q.Submit(context.Background(), "empty", func(context.Context) (*metadata.TextureDescriptor, error) {
		return nil, nil
	})
	require.NoError(t, err)
	broken, err := q.Submit(context.Background(), "broken", func(context.Context) (*metadata.TextureDescriptor, error) {
		return &metadata.TextureDescriptor{Name: "broken", Size: math.NewVector2i(4, 4), Pixels: []byte{0}}, nil
	})
	require.NoError(t, err)

	waitDecoded(t, q, 2)
	assert.Equal(t, 2, q.Upload(0))

	for _, p := range []*PendingTexture{empty, broken} {
		require.True(t, p.Ready())
		tex, err := p.Result()
		assert.Nil(t, tex)
		assert.ErrorIs(t, err, core.ErrResourceLoad)
	}
}

func TestTextureLoadQueueStopResolvesPending(t *testing.T) {
	q := NewTextureLoadQueue(newFakeBackend(&callLog{}), 4)
	q.Start(context.Background())

	started := make(chan struct{})
	blocked, err := q.Submit(context.Background(), "blocked", func(ctx context.Context) (*metadata.TextureDescriptor, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.NoError(t, err)
	<-started

	queued, err := q.Submit(context.Background(), "queued", solidDecoder("queued"))
	require.NoError(t, err)

	q.Stop()
	assert.False(t, q.Running())

	for _, p := range []*PendingTexture{blocked, queued} {
		select {
		case <-p.Done():
		case <-time.After(time.Second):
			t.Fatalf("texture '%s' never resolved", p.Name())
		}
		_, err := p.Result()
		assert.ErrorIs(t, err, core.ErrDeinitialized)
	}

	_, err = q.Submit(context.Background(), "late", solidDecoder("late"))
	assert.ErrorIs(t, err, core.ErrDeinitialized)

	// Stopping twice is harmless.
	q.Stop()
}

func TestResolvedTexture(t *testing.T) {
	tex := &fakeTexture{id: 7}
	p := NewResolvedTexture("ready", tex)

	require.True(t, p.Ready())
	got, err := p.Result()
	require.NoError(t, err)
	assert.Same(t, tex, got)
}

func TestTextureLoadQueueSkipsEarlyResolved(t *testing.T) {
	backend := newFakeBackend(&callLog{})
	q := NewTextureLoadQueue(backend, 4)
	q.Start(context.Background())
	defer q.Stop()

	pending, err := q.Submit(context.Background(), "solid", solidDecoder("solid"))
	require.NoError(t, err)
	waitDecoded(t, q, 1)

	resident := &fakeTexture{id: 3}
	require.True(t, pending.Resolve(resident, nil))
	assert.False(t, pending.Resolve(nil, core.ErrResourceLoad))

	assert.Equal(t, 1, q.Upload(0))
	assert.Empty(t, backend.textures)
	got, err := pending.Result()
	require.NoError(t, err)
	assert.Same(t, resident, got)
}
