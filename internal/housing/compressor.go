package housing

import (
	"log"
	"sync"

	"openshard.dev/internal/world"
)

// bufferPool is a fixed-size pool of encoder scratch buffers. Acquire
// blocks when the pool is drained, bounding peak memory under encode load.
type bufferPool struct {
	ch chan []byte
}

func newBufferPool(n int) *bufferPool {
	p := &bufferPool{ch: make(chan []byte, n)}
	for i := 0; i < n; i++ {
		p.ch <- make([]byte, planeBufferSize)
	}
	return p
}

func (p *bufferPool) Acquire() []byte  { return <-p.ch }
func (p *bufferPool) Release(b []byte) { p.ch <- b[:planeBufferSize] }

// EncodeJob is one queued detail-encode request.
type EncodeJob struct {
	State    *DesignState
	Session  Session
	Serial   uint32
	Revision int
	MinX     int
	MinY     int
	MaxX     int
	MaxY     int
	Tiles    []MultiEntry
}

// DesignEncoder drains encode jobs on its own goroutine; the shard loop
// only ever enqueues. Deflate is the one piece of blocking work in the
// housing core and it all happens here.
//
// Cache contract: an encoded packet is installed into the state's cache
// only if the state still sits at the job's revision; a superseded job is
// not cancelled, still delivers its packet to the requesting session, and
// leaves the cache alone.
type DesignEncoder struct {
	td     *world.TileData
	logger *log.Logger
	pool   *bufferPool

	jobs chan EncodeJob
	wg   sync.WaitGroup
	once sync.Once
}

func NewDesignEncoder(td *world.TileData, logger *log.Logger) *DesignEncoder {
	e := &DesignEncoder{
		td:     td,
		logger: logger,
		// 16 pooled buffers covers one in-flight encode (9 planes + 6
		// stair buffers + deflate scratch).
		pool: newBufferPool(16),
		jobs: make(chan EncodeJob, 1024),
	}
	e.wg.Add(1)
	go e.run()
	return e
}

// Enqueue queues one encode request, blocking only if the backlog is full.
func (e *DesignEncoder) Enqueue(job EncodeJob) {
	e.jobs <- job
}

// Close drains the queue and stops the worker.
func (e *DesignEncoder) Close() {
	e.once.Do(func() { close(e.jobs) })
	e.wg.Wait()
}

func (e *DesignEncoder) run() {
	defer e.wg.Done()
	for job := range e.jobs {
		e.process(job)
	}
}

func (e *DesignEncoder) process(job EncodeJob) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("design encode: panic: %v", r)
		}
	}()

	p := job.State.CachedPacket()
	if p == nil {
		p = encodeDesignDetail(e.td, e.pool, e.logger,
			job.Serial, job.Revision, job.MinX, job.MinY, job.MaxX, job.MaxY, job.Tiles)
		job.State.tryInstallPacket(job.Revision, p)
	}
	job.Session.SendPacket(p)
}
