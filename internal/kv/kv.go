package kv

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

// 按数据形态划分 bucket，键名沿用 Redis 风格的命名空间（如 conversation:<id>）
var (
	bucketKV      = []byte("kv")
	bucketLists   = []byte("lists")
	bucketSets    = []byte("sets")
	bucketZSets   = []byte("zsets")
	bucketExpires = []byte("expires")
)

// Store 托管 KV 存储客户端
// 为 nil 时表示存储未配置，调用方必须先通过 Available() 探测
type Store struct {
	db *bolt.DB
}

// Open 打开（或创建）KV 数据文件
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("打开 KV 数据文件失败: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketKV, bucketLists, bucketSets, bucketZSets, bucketExpires} {
			if _, e := tx.CreateBucketIfNotExists(name); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("初始化 bucket 失败: %w", err)
	}
	return &Store{db: db}, nil
}

// Available 存储是否可用；所有调用点都应先检查
func (s *Store) Available() bool {
	return s != nil && s.db != nil
}

// Close 关闭底层数据文件
func (s *Store) Close() error {
	if !s.Available() {
		return nil
	}
	return s.db.Close()
}

// Set 以 JSON 编码写入键值
func (s *Store) Set(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketKV).Put([]byte(key), data)
	})
}

// Get 读取键值并反序列化到 out，返回键是否存在
// 已过期的键视为不存在，并顺手清理
func (s *Store) Get(key string, out interface{}) (bool, error) {
	var found bool
	var expired bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketKV).Get([]byte(key))
		if data == nil {
			return nil
		}
		if deadline := tx.Bucket(bucketExpires).Get([]byte(key)); deadline != nil {
			var at int64
			if json.Unmarshal(deadline, &at) == nil && time.Now().UnixMilli() > at {
				expired = true
				return nil
			}
		}
		found = true
		return json.Unmarshal(data, out)
	})
	if err != nil {
		return false, err
	}
	if expired {
		_ = s.Del(key)
	}
	return found, nil
}

// Del 删除键及其过期时间
func (s *Store) Del(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketKV).Delete([]byte(key)); err != nil {
			return err
		}
		return tx.Bucket(bucketExpires).Delete([]byte(key))
	})
}

// Expire 设置键的存活时间
// bolt 没有原生 TTL，过期时间记在旁路 bucket，读取时惰性判定
func (s *Store) Expire(key string, ttl time.Duration) error {
	deadline, err := json.Marshal(time.Now().Add(ttl).UnixMilli())
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketExpires).Put([]byte(key), deadline)
	})
}

// LPush 将元素插入列表头部
func (s *Store) LPush(key string, values ...string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLists)
		list := readStringSlice(b, key)
		list = append(append([]string{}, values...), list...)
		return writeStringSlice(b, key, list)
	})
}

// LRange 返回列表 [start, stop] 区间（含两端），stop 为 -1 表示取到末尾
func (s *Store) LRange(key string, start, stop int) ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bolt.Tx) error {
		list := readStringSlice(tx.Bucket(bucketLists), key)
		if stop < 0 || stop >= len(list) {
			stop = len(list) - 1
		}
		if start < 0 {
			start = 0
		}
		if start > stop {
			return nil
		}
		out = append(out, list[start:stop+1]...)
		return nil
	})
	return out, err
}

// LLen 返回列表长度
func (s *Store) LLen(key string) (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = len(readStringSlice(tx.Bucket(bucketLists), key))
		return nil
	})
	return n, err
}

// SAdd 向集合添加成员（已存在则忽略）
func (s *Store) SAdd(key string, members ...string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSets)
		set := readStringSlice(b, key)
		seen := make(map[string]bool, len(set))
		for _, m := range set {
			seen[m] = true
		}
		for _, m := range members {
			if !seen[m] {
				set = append(set, m)
				seen[m] = true
			}
		}
		return writeStringSlice(b, key, set)
	})
}

// SRem 从集合移除成员
func (s *Store) SRem(key string, member string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSets)
		set := readStringSlice(b, key)
		out := set[:0]
		for _, m := range set {
			if m != member {
				out = append(out, m)
			}
		}
		return writeStringSlice(b, key, out)
	})
}

// SIsMember 判断成员是否在集合中
func (s *Store) SIsMember(key string, member string) (bool, error) {
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, m := range readStringSlice(tx.Bucket(bucketSets), key) {
			if m == member {
				ok = true
				return nil
			}
		}
		return nil
	})
	return ok, err
}

// SMembers 返回集合全部成员
func (s *Store) SMembers(key string) ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bolt.Tx) error {
		out = append(out, readStringSlice(tx.Bucket(bucketSets), key)...)
		return nil
	})
	return out, err
}

// SCard 返回集合大小
func (s *Store) SCard(key string) (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = len(readStringSlice(tx.Bucket(bucketSets), key))
		return nil
	})
	return n, err
}

type zMember struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

// ZAdd 向有序集合写入成员（同名成员更新分值）
func (s *Store) ZAdd(key string, score float64, member string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketZSets)
		zset := readZSet(b, key)
		replaced := false
		for i := range zset {
			if zset[i].Member == member {
				zset[i].Score = score
				replaced = true
				break
			}
		}
		if !replaced {
			zset = append(zset, zMember{Member: member, Score: score})
		}
		data, err := json.Marshal(zset)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

// ZRevRange 按分值从高到低返回 [start, stop] 区间的成员，stop 为 -1 表示取到末尾
func (s *Store) ZRevRange(key string, start, stop int) ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bolt.Tx) error {
		zset := readZSet(tx.Bucket(bucketZSets), key)
		sort.SliceStable(zset, func(i, j int) bool { return zset[i].Score > zset[j].Score })
		if stop < 0 || stop >= len(zset) {
			stop = len(zset) - 1
		}
		if start < 0 {
			start = 0
		}
		for i := start; i <= stop; i++ {
			out = append(out, zset[i].Member)
		}
		return nil
	})
	return out, err
}

// ZCard 返回有序集合大小
func (s *Store) ZCard(key string) (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = len(readZSet(tx.Bucket(bucketZSets), key))
		return nil
	})
	return n, err
}

// readStringSlice 读取 JSON 编码的字符串切片，损坏的数据按空处理而不是让整个操作失败
func readStringSlice(b *bolt.Bucket, key string) []string {
	data := b.Get([]byte(key))
	if data == nil {
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func writeStringSlice(b *bolt.Bucket, key string, list []string) error {
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}

func readZSet(b *bolt.Bucket, key string) []zMember {
	data := b.Get([]byte(key))
	if data == nil {
		return nil
	}
	var out []zMember
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
