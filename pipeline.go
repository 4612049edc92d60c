package flash

import "sync"

// task fans a slice out over fixed-size chunks with a join barrier. It is
// only used for work whose items are independent: fn must never touch two
// items' state. The constraint solver never goes through here.
func task[T any](workersCount int, data []T, fn func(data T)) {
	if len(data) == 0 {
		return
	}
	if workersCount <= 1 || len(data) == 1 {
		for i := range data {
			fn(data[i])
		}
		return
	}

	var wg sync.WaitGroup
	dataSize := len(data)
	chunkSize := (dataSize + workersCount - 1) / workersCount

	for workerID := 0; workerID < workersCount; workerID++ {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(data[i])
			}
		}(workerID*chunkSize, min((workerID+1)*chunkSize, dataSize))
	}
	wg.Wait()
}
