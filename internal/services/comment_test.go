package services

import (
	"errors"
	"strconv"
	"sync"
	"testing"
)

func TestAddCommentValidation(t *testing.T) {
	svc := NewCommentService(newTestKV(t))

	cases := []struct {
		name           string
		conversationID string
		content        string
		userID         string
	}{
		{"缺对话 ID", "", "不错", "user_1"},
		{"缺内容", "conv_1", "", "user_1"},
		{"内容全是空白", "conv_1", "   ", "user_1"},
		{"缺用户", "conv_1", "不错", ""},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Add(tt.conversationID, tt.content, tt.userID); !errors.Is(err, ErrMissingFields) {
				t.Errorf("err = %v, want ErrMissingFields", err)
			}
		})
	}
}

func TestAddCommentUnavailable(t *testing.T) {
	svc := NewCommentService(nil)
	if _, err := svc.Add("conv_1", "不错", "user_1"); !errors.Is(err, ErrCommentUnavailable) {
		t.Errorf("err = %v, want ErrCommentUnavailable", err)
	}
}

func TestAddCommentTrimsContent(t *testing.T) {
	svc := NewCommentService(newTestKV(t))

	comment, err := svc.Add("conv_1", "  这段对话太好笑了  ", "user_1")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if comment.Content != "这段对话太好笑了" {
		t.Errorf("content not trimmed: %q", comment.Content)
	}
	if comment.ID == "" || comment.CreatedAt == 0 {
		t.Errorf("comment missing id or timestamp: %+v", comment)
	}
}

func TestAddCommentUpdatesParentCount(t *testing.T) {
	store := newTestKV(t)
	convSvc := NewConversationService(store, NewLocalStore())
	commentSvc := NewCommentService(store)

	saved, err := convSvc.Save(SaveInput{CharacterName: "吴京", ChatHistory: sampleHistory()})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := commentSvc.Add(saved.ConversationID, "第"+strconv.Itoa(i)+"楼", "user_1"); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	conv, found := convSvc.Get(saved.ConversationID)
	if !found {
		t.Fatal("conversation not found")
	}
	if conv.CommentCount != 3 {
		t.Errorf("commentCount = %d, want 3", conv.CommentCount)
	}
}

func TestAddCommentWithoutParentStillDurable(t *testing.T) {
	// 父记录不存在时计数更新是空操作，评论本身照样落库
	store := newTestKV(t)
	svc := NewCommentService(store)

	comment, err := svc.Add("conv_ghost", "沙发", "user_1")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	comments, total, storage := svc.List("conv_ghost", 50, 0)
	if storage != StorageKV {
		t.Errorf("storage = %s, want %s", storage, StorageKV)
	}
	if total != 1 || len(comments) != 1 || comments[0].ID != comment.ID {
		t.Errorf("comment lost: total=%d comments=%+v", total, comments)
	}
}

func TestListCommentsOrderAndPaging(t *testing.T) {
	svc := NewCommentService(newTestKV(t))

	var lastID string
	for i := 0; i < 5; i++ {
		c, err := svc.Add("conv_1", "第"+strconv.Itoa(i)+"楼", "user_1")
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		lastID = c.ID
	}

	comments, total, _ := svc.List("conv_1", 2, 0)
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(comments) != 2 {
		t.Fatalf("page size = %d, want 2", len(comments))
	}
	// 新评论插在头部
	if comments[0].ID != lastID {
		t.Errorf("expected newest comment first, got %s", comments[0].ID)
	}

	page2, _, _ := svc.List("conv_1", 2, 4)
	if len(page2) != 1 {
		t.Errorf("last page size = %d, want 1", len(page2))
	}
}

func TestConcurrentCommentsAllDurable(t *testing.T) {
	// 并发评论时冗余计数可能少算，但评论本身一条都不能丢
	svc := NewCommentService(newTestKV(t))

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.Add("conv_1", "第"+strconv.Itoa(i)+"楼", "user_"+strconv.Itoa(i)); err != nil {
				t.Errorf("Add failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	_, total, _ := svc.List("conv_1", n, 0)
	if total != n {
		t.Errorf("total = %d, want %d (comments must never be lost)", total, n)
	}
}

func TestListCommentsUnavailable(t *testing.T) {
	svc := NewCommentService(nil)
	comments, total, storage := svc.List("conv_1", 50, 0)
	if len(comments) != 0 || total != 0 {
		t.Errorf("expected empty result, got %d/%d", len(comments), total)
	}
	if storage != StorageNone {
		t.Errorf("storage = %s, want %s", storage, StorageNone)
	}
}

func TestListCommentsRendersMarkdown(t *testing.T) {
	svc := NewCommentService(newTestKV(t))

	if _, err := svc.Add("conv_1", "**超可爱**", "user_1"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	comments, _, _ := svc.List("conv_1", 50, 0)
	if len(comments) != 1 {
		t.Fatalf("comments = %d, want 1", len(comments))
	}
	if comments[0].ContentHTML == "" {
		t.Error("contentHtml should be rendered")
	}
	if comments[0].Content != "**超可爱**" {
		t.Errorf("raw content changed: %q", comments[0].Content)
	}
}
