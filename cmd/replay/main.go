package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/judgment/internal/config"
	"github.com/palemoky/judgment/internal/replay"
	"github.com/palemoky/judgment/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	roomCode := flag.String("room", "", "要回放的房间号")
	list := flag.Bool("list", false, "列出 Redis 中保存的房间")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Default()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis 连接失败: %v", err)
	}
	store := storage.NewRedisStore(rdb)

	if *list {
		codes, err := store.Codes(ctx)
		if err != nil {
			log.Fatalf("读取房间列表失败: %v", err)
		}
		for _, code := range codes {
			fmt.Println(code)
		}
		return
	}

	if *roomCode == "" {
		flag.Usage()
		os.Exit(2)
	}

	res, err := replay.Room(ctx, store, *roomCode)
	if err != nil {
		log.Fatalf("回放失败: %v", err)
	}
	fmt.Print(replay.Render(res))
	if len(res.Diffs) > 0 {
		os.Exit(1)
	}
}
