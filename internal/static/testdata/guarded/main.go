// Command guarded is the corrected counterpart of the racy fixture: the same
// shared writes, but behind a mutex and an atomic, so nothing gets flagged.
package main

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	mu      sync.Mutex
	counter int
	hits    atomic.Int64
)

func main() {
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				mu.Lock()
				counter++
				mu.Unlock()
				hits.Add(1)
			}
		}()
	}
	wg.Wait()
	fmt.Println(counter, hits.Load())
}
