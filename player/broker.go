package player

import (
	"sync"
	"time"

	"github.com/vsariola/groove"
)

type (
	// Broker connects the player to the rest of the program. Each recipient
	// has one bounded channel, and the player never blocks on any of them:
	// when FromPlayer is full, the rendered block is dropped instead. Buffers
	// handed out of the player come from a sync.Pool and should be returned
	// with PutAudioBuffer once consumed.
	//
	// CloseXXX channels have a capacity of 1, so a close request can always
	// be sent without blocking; FinishedXXX channels are only ever closed, to
	// signal that the goroutine has cleaned up. Wait for them with a timeout:
	//    select {
	//      case <-FinishedPlayer:
	//      case <-time.After(3 * time.Second):
	//    }
	Broker struct {
		ToPlayer   chan any
		FromPlayer chan MsgFromPlayer

		ClosePlayer    chan struct{}
		FinishedPlayer chan struct{}

		bufferPool sync.Pool
	}

	// MsgFromPlayer is the status the player publishes after every block.
	// Data is usually a *groove.AudioBuffer with a copy of the block, but can
	// also be the answer to a query sent to the player.
	MsgFromPlayer struct {
		Playing bool
		Frame   int // frames rendered since the last rewind
		Dropped int // blocks dropped since the previous message got through
		Level   Level
		Err     error
		Data    any
	}
)

const queueLength = 1024

func NewBroker() *Broker {
	return &Broker{
		ToPlayer:       make(chan any, queueLength),
		FromPlayer:     make(chan MsgFromPlayer, queueLength),
		ClosePlayer:    make(chan struct{}, 1),
		FinishedPlayer: make(chan struct{}),
		bufferPool:     sync.Pool{New: func() any { return &groove.AudioBuffer{} }},
	}
}

// GetAudioBuffer returns an empty audio buffer from the pool.
func (b *Broker) GetAudioBuffer() *groove.AudioBuffer {
	return b.bufferPool.Get().(*groove.AudioBuffer)
}

// PutAudioBuffer returns buf to the pool, keeping its capacity.
func (b *Broker) PutAudioBuffer(buf *groove.AudioBuffer) {
	if len(*buf) > 0 {
		*buf = (*buf)[:0]
	}
	b.bufferPool.Put(buf)
}

// TrySend sends v to c if c is not full. It never blocks.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive blocks until a value is received from c or t has passed.
// ok is false on timeout or if the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
