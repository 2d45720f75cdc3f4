package db

import (
	"log"
	"os"

	"mengchat/internal/kv"
)

// Init 初始化托管 KV 存储
// 未配置或打开失败都不是致命错误：返回 nil，所有调用方降级到本地兜底
func Init() *kv.Store {
	path := os.Getenv("KV_PATH")
	if path == "" {
		log.Println("KV_PATH 未配置，对话将降级到本地存储")
		return nil
	}

	store, err := kv.Open(path)
	if err != nil {
		log.Printf("KV 存储打开失败，降级到本地存储: %v", err)
		return nil
	}

	log.Printf("KV 存储已就绪: %s", path)
	return store
}

// Configured KV 存储是否在环境中配置（与是否连接成功无关，用于诊断接口）
func Configured() bool {
	return os.Getenv("KV_PATH") != ""
}
