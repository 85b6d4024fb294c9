package cryptobackend

import "sync"

// BufferPool pools byte buffers for the sizes the CAS pipeline churns
// through most: 12-byte nonces, 32-byte keys, and chunk-sized buffers. No
// bounded work-queue pool exists here since this engine has no parallel
// chunk pipeline to backpressure.
type BufferPool struct {
	pool12     *sync.Pool
	pool32     *sync.Pool
	chunkPools sync.Map // int(size) -> *sync.Pool
}

var globalBufferPool = NewBufferPool()

func GetGlobalBufferPool() *BufferPool { return globalBufferPool }

func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool12: &sync.Pool{New: func() any { return make([]byte, 12) }},
		pool32: &sync.Pool{New: func() any { return make([]byte, 32) }},
	}
}

func (p *BufferPool) Get12() []byte { return p.pool12.Get().([]byte) }

func (p *BufferPool) Put12(buf []byte) {
	if cap(buf) != 12 {
		return
	}
	zero(buf)
	p.pool12.Put(buf[:12])
}

func (p *BufferPool) Get32() []byte { return p.pool32.Get().([]byte) }

func (p *BufferPool) Put32(buf []byte) {
	if cap(buf) != 32 {
		return
	}
	zero(buf)
	p.pool32.Put(buf[:32])
}

// GetChunk returns a buffer of exactly size bytes from a size-specific pool,
// allocating a fresh one on first use of that size.
func (p *BufferPool) GetChunk(size int) []byte {
	poolAny, _ := p.chunkPools.LoadOrStore(size, &sync.Pool{
		New: func() any { return make([]byte, size) },
	})
	return poolAny.(*sync.Pool).Get().([]byte)
}

func (p *BufferPool) PutChunk(size int, buf []byte) {
	if cap(buf) < size {
		return
	}
	zero(buf)
	poolAny, ok := p.chunkPools.Load(size)
	if !ok {
		return
	}
	poolAny.(*sync.Pool).Put(buf[:size])
}

func zero(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
