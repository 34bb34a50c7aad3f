package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-xlan/redis-go-suo/redissuo"
	"github.com/go-xlan/redis-go-suo/redissuorun"
	"github.com/redis/go-redis/v9"
	"github.com/yyle88/rese"
)

func main() {
	// Start Redis instance to show demo
	miniRedis := rese.P1(miniredis.Run())
	defer miniRedis.Close()

	// Setup Redis connection
	redisClient := redis.NewClient(&redis.Options{
		Addr: miniRedis.Addr(),
	})
	defer rese.F0(redisClient.Close)

	fmt.Println("Running several readers through LockRun against one shared name...")

	var wg sync.WaitGroup
	for idx := 0; idx < 4; idx++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			reader := redissuo.NewSharedSuo(redisClient, "shared-app-lock", "", time.Minute)

			err := redissuorun.LockRun(context.Background(), reader, func(ctx context.Context) error {
				fmt.Printf("reader %d: running inside shared lock\n", id)
				time.Sleep(time.Millisecond * 200)
				fmt.Printf("reader %d: done\n", id)
				return nil
			}, time.Millisecond*50)
			if err != nil {
				fmt.Printf("reader %d: failed: %v\n", id, err)
			}
		}(idx)
	}
	wg.Wait()

	fmt.Println("All readers finished concurrently, without serializing each other")
}
