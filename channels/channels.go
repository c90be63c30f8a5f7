// Package channels provides the FIFO primitives actor inboxes are built on:
// channel creation with flexible sizing, blocking receives with an optional
// deadline, and safe closing of channels that may be closed concurrently.
package channels

import "go.uber.org/atomic"

// Create creates a channel with the specified size and returns a send-only channel,
// a receive-only channel, and a function to get the current queue length.
//
// The size parameter determines the channel type:
//   - size < 0: creates an infinite buffering channel (via InfiniteChan)
//   - size == 0: creates an unbuffered channel
//   - size > 0: creates a buffered channel with the specified capacity
func Create[T any](size int) (chan<- T, <-chan T, func() int) {
	switch {
	case size < 0:
		return InfiniteChan[T]()
	case size == 0:
		c := make(chan T)

		return c, c, func() int {
			return len(c)
		}
	default:
		c := make(chan T, size)

		return c, c, func() int {
			return len(c)
		}
	}
}

// CloseIgnorePanic closes a channel like normal.
// However, if the channel has already been closed,
// it will suppress the resulting panic.
func CloseIgnorePanic[T any](ch chan<- T) {
	if ch == nil {
		return
	}

	defer func() {
		// Recover from panic if the channel is already closed
		_ = recover()
	}()

	close(ch)
}

// InfiniteChan creates a channel with infinite buffering.
// It returns a send-only channel, a receive-only channel, and a function that
// reports the number of queued values. Sends never block; receives observe
// values in the order they were sent. Closing the send side drains the queue
// into the receive side and then closes it.
//
// Note: use with caution, the internal queue grows without bound if the sender
// outpaces the receiver.
func InfiniteChan[A any]() (chan<- A, <-chan A, func() int) {
	inputCh := make(chan A)
	outputCh := make(chan A)

	var inputQueue []A

	queued := atomic.NewInt64(0)

	go func() {
		// outCh returns the output channel only when there's data to send.
		// Returns nil when the queue is empty to disable that select case.
		outCh := func() chan A {
			if len(inputQueue) == 0 {
				return nil
			}

			return outputCh
		}

		curVal := func() A {
			if len(inputQueue) == 0 {
				var zero A

				return zero
			}

			return inputQueue[0]
		}

		// Continue until the queue is drained and the input channel is closed.
		for len(inputQueue) > 0 || inputCh != nil {
			select {
			case v, ok := <-inputCh:
				if !ok {
					inputCh = nil
				} else {
					inputQueue = append(inputQueue, v)
				}
			case outCh() <- curVal():
				inputQueue = inputQueue[1:]
			}

			queued.Store(int64(len(inputQueue)))
		}

		close(outputCh)
	}()

	return inputCh, outputCh, func() int {
		return int(queued.Load())
	}
}
