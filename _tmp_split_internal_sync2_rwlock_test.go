package sync2

import (
	"sync"
	"testing"
	"time"
)

// TestRWLockConcurrentReaders verifies multiple readers may hold the lock
// simultaneously.
func TestRWLockConcurrentReaders(t *testing.T) {
	rw := NewRWLock()
	const n = 4
	inside := make(chan struct{}, n)
	release := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := ctxFor(newFakeHolder(uint64(i), 1))
			rw.AcquireRead(ctx)
			inside <- struct{}{}
			<-release
			rw.ReleaseRead(ctx)
		}()
	}

	for i := 0; i < n; i++ {
		select {
		case <-inside:
		case <-time.After(time.Second):
			t.Fatalf("only %d of %d readers entered concurrently", i, n)
		}
	}
	close(release)
	wg.Wait()
}

// TestRWLockWriterExclusion verifies a writer excludes both readers and
// other writers.
func TestRWLockWriterExclusion(t *testing.T) {
	rw := NewRWLock()
	writerCtx := ctxFor(newFakeHolder(1, 1))
	readerCtx := ctxFor(newFakeHolder(2, 1))

	rw.AcquireWrite(writerCtx)

	readerEntered := make(chan struct{})
	go func() {
		rw.AcquireRead(readerCtx)
		close(readerEntered)
		rw.ReleaseRead(readerCtx)
	}()

	select {
	case <-readerEntered:
		t.Fatal("reader entered while writer held the lock")
	case <-time.After(20 * time.Millisecond):
	}

	rw.ReleaseWrite(writerCtx)

	select {
	case <-readerEntered:
	case <-time.After(time.Second):
		t.Fatal("reader never entered after writer released")
	}
}

// TestRWLockWriterPriority verifies spec.md's writer-priority policy: once
// a writer is waiting, new readers arriving afterward must wait behind it,
// even though a reader is already active.
func TestRWLockWriterPriority(t *testing.T) {
	rw := NewRWLock()
	firstReaderCtx := ctxFor(newFakeHolder(1, 1))
	writerCtx := ctxFor(newFakeHolder(2, 1))
	secondReaderCtx := ctxFor(newFakeHolder(3, 1))

	rw.AcquireRead(firstReaderCtx)

	writerWaiting := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		close(writerWaiting)
		rw.AcquireWrite(writerCtx)
		close(writerDone)
		time.Sleep(20 * time.Millisecond)
		rw.ReleaseWrite(writerCtx)
	}()
	<-writerWaiting
	time.Sleep(20 * time.Millisecond) // let the writer register as waiting

	secondReaderEntered := make(chan struct{})
	go func() {
		rw.AcquireRead(secondReaderCtx)
		close(secondReaderEntered)
		rw.ReleaseRead(secondReaderCtx)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-secondReaderEntered:
		t.Fatal("second reader entered ahead of a waiting writer")
	default:
	}
	select {
	case <-writerDone:
		t.Fatal("writer acquired the lock while a reader was still active")
	default:
	}

	rw.ReleaseRead(firstReaderCtx)

	select {
	case <-writerDone:
	case <-time.After(time.Second):
		t.Fatal("writer never acquired the lock")
	}
	select {
	case <-secondReaderEntered:
	case <-time.After(time.Second):
		t.Fatal("second reader never entered after writer released")
	}
}

// TestRWLockWriterReentrant verifies a thread holding the write lock may
// call AcquireRead/ReleaseRead without deadlocking.
func TestRWLockWriterReentrant(t *testing.T) {
	rw := NewRWLock()
	ctx := ctxFor(newFakeHolder(1, 1))

	rw.AcquireWrite(ctx)
	rw.AcquireRead(ctx)
	rw.ReleaseRead(ctx)
	rw.ReleaseWrite(ctx)
}


