package main

import (
	"context"
	"fmt"
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

	// Init exclusive lock, run business code with auto retry/release/panic-recovery
	lock := redissuo.NewExclusiveSuo(redisClient, "app-lock", "", time.Minute*2)

	fmt.Println("Beginning high-level exclusive-lock operation...")

	err := redissuorun.LockRun(context.Background(), lock, func(ctx context.Context) error {
		fmt.Println("Running protected zone with lock shield")
		fmt.Println("Handling main business code...")

		for i := 1; i <= 5; i++ {
			fmt.Printf("Phase %d/5 working...\n", i)
			time.Sleep(time.Millisecond * 300)
		}

		fmt.Println("Business code finished!")
		return nil
	}, time.Millisecond*100) // Wait time

	if err != nil {
		fmt.Printf("Lock action failed: %v\n", err)
		return
	}

	fmt.Println("Lock action finished!")

	// Now show two shared (read) holders coexisting on the same name
	readerA := redissuo.NewSharedSuo(redisClient, "app-read-lock", "", time.Minute)
	readerB := redissuo.NewSharedSuo(redisClient, "app-read-lock", "", time.Minute)

	ctx := context.Background()
	okA, err := readerA.Acquire(ctx)
	if err != nil {
		panic(err)
	}
	okB, err := readerB.Acquire(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Shared readers coexist: A=%v B=%v\n", okA, okB)

	if err := readerA.Release(ctx, false); err != nil {
		fmt.Printf("reader A release failed: %v\n", err)
	}
	if err := readerB.Release(ctx, false); err != nil {
		fmt.Printf("reader B release failed: %v\n", err)
	}
}
