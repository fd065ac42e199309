package sync2

import (
	"sync"
	"testing"
	"time"
)

// TestChannelSendReceive verifies a single Send/Receive rendezvous delivers
// the exact value sent.
func TestChannelSendReceive(t *testing.T) {
	ch := NewChannel[int]()
	senderCtx := ctxFor(newFakeHolder(1, 1))
	receiverCtx := ctxFor(newFakeHolder(2, 1))

	received := make(chan int)
	go func() {
		received <- ch.Receive(receiverCtx)
	}()

	time.Sleep(10 * time.Millisecond)
	ch.Send(senderCtx, 7)

	select {
	case got := <-received:
		if got != 7 {
			t.Fatalf("receiver observed %d, want 7", got)
		}
	case <-time.After(time.Second):
		t.Fatal("receiver never observed a value")
	}
}

// TestChannelSendBlocksUntilReceive verifies Send does not return before a
// Receive has consumed the value.
func TestChannelSendBlocksUntilReceive(t *testing.T) {
	ch := NewChannel[int]()
	senderCtx := ctxFor(newFakeHolder(1, 1))
	receiverCtx := ctxFor(newFakeHolder(2, 1))

	sendReturned := make(chan struct{})
	go func() {
		ch.Send(senderCtx, 1)
		close(sendReturned)
	}()

	select {
	case <-sendReturned:
		t.Fatal("Send returned before any Receive")
	case <-time.After(20 * time.Millisecond):
	}

	ch.Receive(receiverCtx)

	select {
	case <-sendReturned:
	case <-time.After(time.Second):
		t.Fatal("Send never returned after Receive")
	}
}

// TestChannelManySendersReceivers exercises scenario S5: 6 senders each
// send 4 values (0..3), 4 receivers each receive 6 values, for 24 total
// messages, and every sent value is observed by exactly one receiver.
func TestChannelManySendersReceivers(t *testing.T) {
	ch := NewChannel[int]()
	const senders = 6
	const valuesPerSender = 4
	const receivers = 4
	const total = senders * valuesPerSender

	var wg sync.WaitGroup
	wg.Add(senders)
	for i := 0; i < senders; i++ {
		i := i
		go func() {
			defer wg.Done()
			ctx := ctxFor(newFakeHolder(uint64(i), 1))
			for v := 0; v < valuesPerSender; v++ {
				ch.Send(ctx, v)
			}
		}()
	}

	// Exactly `total` receives will ever succeed; hand out that many
	// tickets across the receiver pool so no receiver blocks forever.
	tickets := make(chan struct{}, total)
	for i := 0; i < total; i++ {
		tickets <- struct{}{}
	}
	close(tickets)

	var mu sync.Mutex
	seen := make(map[int]int)
	var recvWG sync.WaitGroup
	recvCounts := make([]int, receivers)
	recvWG.Add(receivers)
	for r := 0; r < receivers; r++ {
		r := r
		go func() {
			defer recvWG.Done()
			ctx := ctxFor(newFakeHolder(uint64(100+r), 1))
			for range tickets {
				v := ch.Receive(ctx)
				mu.Lock()
				seen[v]++
				recvCounts[r]++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	done := make(chan struct{})
	go func() {
		recvWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("not all sent values were received")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != valuesPerSender {
		t.Fatalf("observed %d distinct values, want %d", len(seen), valuesPerSender)
	}
	for v, count := range seen {
		if count != senders {
			t.Fatalf("value %d observed %d times, want exactly %d (once per sender)", v, count, senders)
		}
	}

	delivered := 0
	for _, c := range recvCounts {
		delivered += c
	}
	if delivered != total {
		t.Fatalf("delivered %d messages, want %d", delivered, total)
	}
}


