package kv

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.bolt"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAvailable(t *testing.T) {
	var nilStore *Store
	if nilStore.Available() {
		t.Error("nil store should not be available")
	}
	store := newTestStore(t)
	if !store.Available() {
		t.Error("open store should be available")
	}
}

func TestSetGetDel(t *testing.T) {
	store := newTestStore(t)

	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	if err := store.Set("conversation:abc", record{Name: "吴京", Count: 3}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got record
	found, err := store.Get("conversation:abc", &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatal("expected key to exist")
	}
	if got.Name != "吴京" || got.Count != 3 {
		t.Errorf("unexpected value: %+v", got)
	}

	if err := store.Del("conversation:abc"); err != nil {
		t.Fatalf("Del failed: %v", err)
	}
	found, _ = store.Get("conversation:abc", &got)
	if found {
		t.Error("expected key to be deleted")
	}
}

func TestExpire(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set("conversation:exp", "value"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	// 过期时间设在过去，读取时应视为不存在
	if err := store.Expire("conversation:exp", -time.Second); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}

	var got string
	found, err := store.Get("conversation:exp", &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Error("expired key should read as absent")
	}
}

func TestListOps(t *testing.T) {
	store := newTestStore(t)

	// 逐条 LPush，新的在头部
	for _, id := range []string{"c1", "c2", "c3"} {
		if err := store.LPush("conversation:x:comments", id); err != nil {
			t.Fatalf("LPush failed: %v", err)
		}
	}

	n, err := store.LLen("conversation:x:comments")
	if err != nil || n != 3 {
		t.Fatalf("LLen = %d, %v; want 3", n, err)
	}

	got, err := store.LRange("conversation:x:comments", 0, 1)
	if err != nil {
		t.Fatalf("LRange failed: %v", err)
	}
	if len(got) != 2 || got[0] != "c3" || got[1] != "c2" {
		t.Errorf("LRange(0,1) = %v, want [c3 c2]", got)
	}

	// stop 为 -1 取到末尾
	got, _ = store.LRange("conversation:x:comments", 1, -1)
	if len(got) != 2 || got[0] != "c2" || got[1] != "c1" {
		t.Errorf("LRange(1,-1) = %v, want [c2 c1]", got)
	}

	// 越界 offset 返回空
	got, _ = store.LRange("conversation:x:comments", 10, 20)
	if len(got) != 0 {
		t.Errorf("out of range LRange = %v, want empty", got)
	}
}

func TestSetOps(t *testing.T) {
	store := newTestStore(t)

	key := "conversation:x:likers"
	if err := store.SAdd(key, "u1", "u2", "u1"); err != nil {
		t.Fatalf("SAdd failed: %v", err)
	}

	n, _ := store.SCard(key)
	if n != 2 {
		t.Errorf("SCard = %d, want 2 (duplicates ignored)", n)
	}

	ok, _ := store.SIsMember(key, "u1")
	if !ok {
		t.Error("u1 should be a member")
	}

	if err := store.SRem(key, "u1"); err != nil {
		t.Fatalf("SRem failed: %v", err)
	}
	ok, _ = store.SIsMember(key, "u1")
	if ok {
		t.Error("u1 should have been removed")
	}

	members, _ := store.SMembers(key)
	if len(members) != 1 || members[0] != "u2" {
		t.Errorf("SMembers = %v, want [u2]", members)
	}
}

func TestZSetOps(t *testing.T) {
	store := newTestStore(t)

	key := "public:conversations"
	store.ZAdd(key, 100, "old")
	store.ZAdd(key, 300, "new")
	store.ZAdd(key, 200, "mid")

	got, err := store.ZRevRange(key, 0, -1)
	if err != nil {
		t.Fatalf("ZRevRange failed: %v", err)
	}
	want := []string{"new", "mid", "old"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ZRevRange = %v, want %v", got, want)
		}
	}

	// 同名成员更新分值而不是重复添加
	store.ZAdd(key, 999, "old")
	n, _ := store.ZCard(key)
	if n != 3 {
		t.Errorf("ZCard = %d, want 3", n)
	}
	got, _ = store.ZRevRange(key, 0, 0)
	if len(got) != 1 || got[0] != "old" {
		t.Errorf("after re-add, top = %v, want [old]", got)
	}
}
