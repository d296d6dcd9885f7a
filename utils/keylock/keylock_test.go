package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLockSerializesSameKey(t *testing.T) {
	kl := New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kl.Lock("user-1")
			counter++
			kl.Unlock("user-1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestKeyLockIndependentKeys(t *testing.T) {
	kl := New()

	kl.Lock("user-1")

	// A different key is not blocked by user-1's lock.
	done := make(chan struct{})
	go func() {
		kl.Lock("user-2")
		kl.Unlock("user-2")
		close(done)
	}()
	<-done

	kl.Unlock("user-1")
}
