package renderer

import (
	"context"
	"fmt"
	"sync"

	"github.com/spaghettifunk/vista/engine/containers"
	"github.com/spaghettifunk/vista/engine/core"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
)

// TextureDecodeFunc prepares CPU side pixels. It runs on the loader goroutine and
// must not touch the rendering context.
type TextureDecodeFunc func(ctx context.Context) (*metadata.TextureDescriptor, error)

/**
 * @brief A texture requested from the background loader. It resolves on the
 * render thread once the upload ran.
 */
type PendingTexture struct {
	name    string
	mutex   sync.Mutex
	done    chan struct{}
	texture metadata.Texture
	err     error
}

func newPendingTexture(name string) *PendingTexture {
	return &PendingTexture{name: name, done: make(chan struct{})}
}

// NewResolvedTexture wraps a texture that is already resident.
func NewResolvedTexture(name string, texture metadata.Texture) *PendingTexture {
	p := newPendingTexture(name)
	p.resolve(texture, nil)
	return p
}

func (p *PendingTexture) Name() string {
	return p.name
}

// Done is closed once the texture is uploaded or failed.
func (p *PendingTexture) Done() <-chan struct{} {
	return p.done
}

func (p *PendingTexture) Ready() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Result returns the texture, or nil and an error when the load failed.
// Only meaningful once Ready.
func (p *PendingTexture) Result() (metadata.Texture, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.texture, p.err
}

// Resolve completes the handle with a texture obtained some other way, such as
// a synchronous load of the same asset. The queue then skips the upload. Returns
// false when the handle was already resolved. Render thread only.
func (p *PendingTexture) Resolve(texture metadata.Texture, err error) bool {
	return p.resolve(texture, err)
}

func (p *PendingTexture) resolve(texture metadata.Texture, err error) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	select {
	case <-p.done:
		return false
	default:
	}
	p.texture = texture
	p.err = err
	close(p.done)
	return true
}

type textureJob struct {
	pending *PendingTexture
	decode  TextureDecodeFunc
}

type decodedTexture struct {
	pending    *PendingTexture
	descriptor *metadata.TextureDescriptor
	err        error
}

/**
 * @brief Producer/consumer texture loading. One goroutine decodes, the render
 * thread uploads in Upload. Stop joins the goroutine and must run before the
 * context is destroyed.
 */
type TextureLoadQueue struct {
	factory  metadata.TextureFactory
	jobQueue chan *textureJob

	mutex   sync.Mutex
	decoded *containers.RingQueue[*decodedTexture]
	running bool

	// Held for reading while a job is handed over, so Stop sees every accepted job.
	submitMutex sync.RWMutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTextureLoadQueue(factory metadata.TextureFactory, channelSize int) *TextureLoadQueue {
	if channelSize < 1 {
		channelSize = 1
	}
	return &TextureLoadQueue{
		factory:  factory,
		jobQueue: make(chan *textureJob, channelSize),
		decoded:  containers.NewGrowableRingQueue[*decodedTexture](channelSize),
	}
}

// Start launches the loader goroutine. The queue stops by itself when ctx ends.
func (q *TextureLoadQueue) Start(ctx context.Context) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if q.running {
		return
	}
	ctx, q.cancel = context.WithCancel(ctx)
	q.running = true

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-q.jobQueue:
				descriptor, err := job.decode(ctx)
				if err == nil && descriptor == nil {
					err = fmt.Errorf("decoder returned no pixels")
				}
				if err == nil {
					err = descriptor.Validate()
				}
				if err != nil {
					err = fmt.Errorf("texture '%s': %v: %w", job.pending.name, err, core.ErrResourceLoad)
				}
				q.mutex.Lock()
				_ = q.decoded.Enqueue(&decodedTexture{pending: job.pending, descriptor: descriptor, err: err})
				q.mutex.Unlock()
			}
		}
	}()
}

// Submit queues a decode job. It blocks while the job channel is full and fails
// once the queue is stopped.
func (q *TextureLoadQueue) Submit(ctx context.Context, name string, decode TextureDecodeFunc) (*PendingTexture, error) {
	q.submitMutex.RLock()
	defer q.submitMutex.RUnlock()
	if !q.Running() {
		return nil, fmt.Errorf("texture '%s' submitted to a stopped loader: %w", name, core.ErrDeinitialized)
	}

	pending := newPendingTexture(name)
	select {
	case q.jobQueue <- &textureJob{pending: pending, decode: decode}:
		return pending, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Upload creates backend textures for everything decoded so far, at most max
// when max is positive. Render thread only. Returns the number resolved.
func (q *TextureLoadQueue) Upload(max int) int {
	count := 0
	for max <= 0 || count < max {
		q.mutex.Lock()
		item, err := q.decoded.Dequeue()
		q.mutex.Unlock()
		if err != nil {
			break
		}

		switch {
		case item.pending.Ready():
			// Resolved early by the owner, nothing to upload.
		case item.err != nil:
			core.LogWarn("%s", item.err)
			item.pending.resolve(nil, item.err)
		default:
			texture, err := q.factory.CreateTexture(item.descriptor)
			if err != nil {
				core.LogWarn("texture '%s' upload failed: %s", item.pending.name, err)
			}
			item.pending.resolve(texture, err)
		}
		count++
	}
	return count
}

func (q *TextureLoadQueue) Running() bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.running
}

// Stop cancels the loader and waits for it. Jobs that never ran and results that
// were never uploaded resolve with an error.
func (q *TextureLoadQueue) Stop() {
	q.submitMutex.Lock()
	q.mutex.Lock()
	if !q.running {
		q.mutex.Unlock()
		q.submitMutex.Unlock()
		return
	}
	q.running = false
	cancel := q.cancel
	q.mutex.Unlock()
	q.submitMutex.Unlock()

	cancel()
	q.wg.Wait()

	stopped := fmt.Errorf("texture loader stopped: %w", core.ErrDeinitialized)
drain:
	for {
		select {
		case job := <-q.jobQueue:
			job.pending.resolve(nil, stopped)
		default:
			break drain
		}
	}
	q.mutex.Lock()
	defer q.mutex.Unlock()
	for !q.decoded.IsEmpty() {
		item, _ := q.decoded.Dequeue()
		item.pending.resolve(nil, stopped)
	}
}
