// Command racy carries the classic lost-update bug for the analysis to find:
// goroutines writing package-level state with no synchronization at all.
package main

import "fmt"

var (
	counter int
	dirty   bool
)

func bump() {
	counter++
}

func main() {
	done := make(chan struct{})
	go bump()
	go func() {
		for i := 0; i < 1000; i++ {
			counter++
		}
		dirty = true
		done <- struct{}{}
	}()
	<-done
	fmt.Println(counter, dirty)
}
