package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-xlan/redis-go-suo/redissuo"
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

	// Init exclusive lock
	lock := redissuo.NewExclusiveSuo(redisClient, "demo-lock", "", time.Minute*5)

	// Get lock
	ctx := context.Background()
	ok, err := lock.Acquire(ctx)
	if err != nil {
		panic(err)
	}
	if !ok {
		fmt.Println("Lock taken - used in different process")
		return
	}

	fmt.Printf("Lock acquired! Secret: %s\n", lock.Secret())

	// Run protected code
	fmt.Println("Running protected zone...")
	time.Sleep(time.Second * 2) // Mock task

	// Free lock
	if err := lock.Release(ctx, false); err != nil {
		fmt.Printf("Lock release failed: %v\n", err)
		return
	}
	fmt.Println("Lock released!")
}
