// Package testutil 内存版的存储和外部依赖，供 service/handler 测试使用
package testutil

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"Memeologia/internal/model"
	"Memeologia/internal/pkg"

	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Accounts 内存账号表，邮箱唯一
type Accounts struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Account
	Events []model.AccountEvent
}

func NewAccounts() *Accounts {
	return &Accounts{rows: make(map[uint64]model.Account)}
}

func (a *Accounts) Create(_ context.Context, acc *model.Account) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, row := range a.rows {
		if row.Email == acc.Email {
			return pkg.Conflict("email already registered")
		}
	}
	a.nextID++
	acc.ID = a.nextID
	now := time.Now().UTC()
	acc.CreatedAt, acc.UpdatedAt = now, now
	a.rows[acc.ID] = *acc
	a.Events = append(a.Events, model.AccountEvent{Event: model.EventAccountRegistered, AccountID: acc.ID, EventTime: now})
	return nil
}

func (a *Accounts) FindByEmail(_ context.Context, email string) (*model.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, row := range a.rows {
		if row.Email == email {
			acc := row
			return &acc, nil
		}
	}
	return nil, pkg.NotFound("account not found")
}

func (a *Accounts) FindByID(_ context.Context, id uint64) (*model.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	row, ok := a.rows[id]
	if !ok {
		return nil, pkg.NotFound("account not found")
	}
	return &model.Account{ID: row.ID, Name: row.Name, Role: row.Role, PhotoURL: row.PhotoURL}, nil
}

func (a *Accounts) FindAuthors(_ context.Context, ids []uint64) (map[uint64]model.Author, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[uint64]model.Author, len(ids))
	for _, id := range ids {
		if row, ok := a.rows[id]; ok {
			out[id] = model.Author{ID: row.ID, Name: row.Name, PhotoURL: row.PhotoURL}
		}
	}
	return out, nil
}

func (a *Accounts) List(_ context.Context) ([]model.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.Account, 0, len(a.rows))
	for _, row := range a.rows {
		row.Password = ""
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (a *Accounts) UpdateName(_ context.Context, id uint64, name string) error {
	return a.update(id, func(acc *model.Account) { acc.Name = name })
}

func (a *Accounts) UpdatePhotoURL(_ context.Context, id uint64, url string) error {
	return a.update(id, func(acc *model.Account) { acc.PhotoURL = &url })
}

func (a *Accounts) update(id uint64, fn func(*model.Account)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	row, ok := a.rows[id]
	if !ok {
		return pkg.NotFound("account not found")
	}
	fn(&row)
	row.UpdatedAt = time.Now().UTC()
	a.rows[id] = row
	return nil
}

func (a *Accounts) Delete(_ context.Context, id uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.rows[id]; !ok {
		return pkg.NotFound("account not found")
	}
	delete(a.rows, id)
	a.Events = append(a.Events, model.AccountEvent{Event: model.EventAccountDeleted, AccountID: id, EventTime: time.Now().UTC()})
	return nil
}

// Memes 内存 meme 集合，保持插入顺序
type Memes struct {
	mu        sync.Mutex
	items     []*model.Meme
	comments  *Comments
	deleteErr error
}

// FailDeletes 之后的 DeleteByAccount 都返回 err，传 nil 恢复
func (s *Memes) FailDeletes(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteErr = err
}

// Comments 内存评论集合
type Comments struct {
	mu    sync.Mutex
	items []*model.Comment
	memes *Memes
}

// NewContent 返回互相关联的 meme 和评论集合
func NewContent() (*Memes, *Comments) {
	m := &Memes{}
	c := &Comments{memes: m}
	m.comments = c
	return m, c
}

func cloneMeme(m *model.Meme) model.Meme {
	out := *m
	out.LikedBy = append([]uint64{}, m.LikedBy...)
	out.Tags = append([]string{}, m.Tags...)
	return out
}

func (s *Memes) Insert(_ context.Context, m *model.Meme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.UploadedAt.IsZero() {
		m.UploadedAt = time.Now().UTC()
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if m.LikedBy == nil {
		m.LikedBy = []uint64{}
	}
	m.Likes = int64(len(m.LikedBy))
	stored := cloneMeme(m)
	s.items = append(s.items, &stored)
	return nil
}

func (s *Memes) find(id primitive.ObjectID) (int, *model.Meme) {
	for i, m := range s.items {
		if m.ID == id {
			return i, m
		}
	}
	return -1, nil
}

func (s *Memes) FindByID(_ context.Context, id primitive.ObjectID) (*model.Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, m := s.find(id)
	if m == nil {
		return nil, pkg.NotFound("meme not found")
	}
	out := cloneMeme(m)
	return &out, nil
}

func (s *Memes) ListPage(_ context.Context, skip, limit int64, activeOnly bool) ([]model.Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Meme, 0)
	var seen int64
	for _, m := range s.items {
		if activeOnly && !m.Active {
			continue
		}
		seen++
		if seen <= skip {
			continue
		}
		if int64(len(out)) >= limit {
			break
		}
		out = append(out, cloneMeme(m))
	}
	return out, nil
}

func (s *Memes) ListAll(_ context.Context) ([]model.Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Meme, 0, len(s.items))
	for _, m := range s.items {
		out = append(out, cloneMeme(m))
	}
	return out, nil
}

func (s *Memes) ListByAccount(_ context.Context, accountID uint64) ([]model.Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Meme, 0)
	for _, m := range s.items {
		if m.AccountID == accountID {
			out = append(out, cloneMeme(m))
		}
	}
	return out, nil
}

func (s *Memes) UpdateState(_ context.Context, id primitive.ObjectID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, m := s.find(id)
	if m == nil {
		return pkg.NotFound("meme not found")
	}
	m.Active = active
	return nil
}

func (s *Memes) ToggleLike(_ context.Context, id primitive.ObjectID, accountID uint64) (*model.Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, m := s.find(id)
	if m == nil {
		return nil, pkg.NotFound("meme not found")
	}
	m.ToggleLike(accountID)
	out := cloneMeme(m)
	return &out, nil
}

func (s *Memes) IncrementReports(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, m := s.find(id)
	if m == nil {
		return 0, pkg.NotFound("meme not found")
	}
	m.Reports++
	return m.Reports, nil
}

func (s *Memes) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	i, m := s.find(id)
	if m == nil {
		s.mu.Unlock()
		return pkg.NotFound("meme not found")
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.mu.Unlock()

	s.comments.deleteWhere(func(c *model.Comment) bool { return c.MemeID == id })
	return nil
}

func (s *Memes) GroupByAccount(_ context.Context) ([]model.MemeGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byAccount := map[uint64][]model.MemeSummary{}
	for _, m := range s.items {
		byAccount[m.AccountID] = append(byAccount[m.AccountID], model.MemeSummary{
			ID:         m.ID,
			Format:     m.Format,
			Category:   m.Category,
			AssetURL:   m.AssetURL,
			Active:     m.Active,
			Likes:      m.Likes,
			UploadedAt: m.UploadedAt,
		})
	}
	out := make([]model.MemeGroup, 0, len(byAccount))
	for id, list := range byAccount {
		out = append(out, model.MemeGroup{AccountID: id, Memes: list})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

func (s *Memes) DeleteByAccount(_ context.Context, accountID uint64) (int64, error) {
	s.mu.Lock()
	if err := s.deleteErr; err != nil {
		s.mu.Unlock()
		return 0, err
	}
	var deleted []primitive.ObjectID
	kept := s.items[:0]
	for _, m := range s.items {
		if m.AccountID == accountID {
			deleted = append(deleted, m.ID)
			continue
		}
		kept = append(kept, m)
	}
	s.items = kept
	s.mu.Unlock()

	gone := make(map[primitive.ObjectID]bool, len(deleted))
	for _, id := range deleted {
		gone[id] = true
	}
	s.comments.deleteWhere(func(c *model.Comment) bool { return gone[c.MemeID] })
	return int64(len(deleted)), nil
}

func (s *Memes) RemoveLikesBy(_ context.Context, accountID uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.items {
		if m.LikedByAccount(accountID) {
			m.ToggleLike(accountID)
			n++
		}
	}
	return n, nil
}

func (c *Comments) Insert(_ context.Context, cm *model.Comment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cm.ID.IsZero() {
		cm.ID = primitive.NewObjectID()
	}
	if cm.CreatedAt.IsZero() {
		cm.CreatedAt = time.Now().UTC()
	}
	stored := *cm
	c.items = append(c.items, &stored)
	return nil
}

func (c *Comments) AppendToMeme(ctx context.Context, memeID primitive.ObjectID, cm *model.Comment) error {
	if _, err := c.memes.FindByID(ctx, memeID); err != nil {
		return err
	}
	cm.MemeID = memeID
	return c.Insert(ctx, cm)
}

func (c *Comments) ListAll(_ context.Context) ([]model.Comment, error) {
	return c.filter(func(*model.Comment) bool { return true }), nil
}

func (c *Comments) ListByMeme(_ context.Context, memeID primitive.ObjectID) ([]model.Comment, error) {
	out := c.filter(func(cm *model.Comment) bool { return cm.MemeID == memeID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (c *Comments) GroupByAccount(_ context.Context) ([]model.CommentGroup, error) {
	all := c.filter(func(*model.Comment) bool { return true })
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	byAccount := map[uint64][]model.Comment{}
	for _, cm := range all {
		byAccount[cm.AccountID] = append(byAccount[cm.AccountID], cm)
	}
	out := make([]model.CommentGroup, 0, len(byAccount))
	for id, list := range byAccount {
		out = append(out, model.CommentGroup{AccountID: id, Comments: list})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

func (c *Comments) DeleteByAccount(_ context.Context, accountID uint64) (int64, error) {
	return c.deleteWhere(func(cm *model.Comment) bool { return cm.AccountID == accountID }), nil
}

func (c *Comments) filter(keep func(*model.Comment) bool) []model.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Comment, 0)
	for _, cm := range c.items {
		if keep(cm) {
			out = append(out, *cm)
		}
	}
	return out
}

func (c *Comments) deleteWhere(match func(*model.Comment) bool) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	kept := c.items[:0]
	for _, cm := range c.items {
		if match(cm) {
			n++
			continue
		}
		kept = append(kept, cm)
	}
	c.items = kept
	return n
}

var ErrSessionNotFound = errors.New("token not found")

// Sessions 内存会话存储
type Sessions struct {
	mu     sync.Mutex
	tokens map[uint64]string
}

func NewSessions() *Sessions {
	return &Sessions{tokens: make(map[uint64]string)}
}

func (s *Sessions) Save(_ context.Context, accountID uint64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[accountID] = token
	return nil
}

func (s *Sessions) Get(_ context.Context, accountID uint64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[accountID]
	if !ok {
		return "", ErrSessionNotFound
	}
	return token, nil
}

func (s *Sessions) Extend(_ context.Context, _ uint64) error { return nil }

func (s *Sessions) Delete(_ context.Context, accountID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, accountID)
	return nil
}

// Objects 内存对象存储；Err 非空时上传失败
type Objects struct {
	mu      sync.Mutex
	BaseURL string
	Err     error
	Files   map[string][]byte
	Types   map[string]string
}

func NewObjects() *Objects {
	return &Objects{
		BaseURL: "https://cdn.test",
		Files:   make(map[string][]byte),
		Types:   make(map[string]string),
	}
}

func (o *Objects) Upload(_ context.Context, body io.ReadSeeker, key, contentType string) (string, error) {
	if o.Err != nil {
		return "", pkg.Storage("upload failed", o.Err)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", pkg.Storage("upload failed", err)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Files[key] = data
	o.Types[key] = contentType
	return o.BaseURL + "/" + key, nil
}

// Mail 记录发出的通知
type Mail struct {
	To      []string
	Subject string
	Body    string
}

type Notifier struct {
	mu   sync.Mutex
	Err  error
	Sent []Mail
}

func (n *Notifier) Send(to []string, subject, htmlBody string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Sent = append(n.Sent, Mail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (n *Notifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Sent)
}

// Outbox 内存事件表
type Outbox struct {
	mu   sync.Mutex
	Rows []model.AccountOutbox
}

func (o *Outbox) List(_ context.Context, batchSize int) ([]model.AccountOutbox, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]model.AccountOutbox, 0)
	for _, row := range o.Rows {
		if row.Status == model.OutboxPending && len(out) < batchSize {
			out = append(out, row)
		}
	}
	return out, nil
}

func (o *Outbox) SuccessUpdate(_ context.Context, id uint64) error {
	return o.set(id, func(row *model.AccountOutbox) { row.Status = model.OutboxSent })
}

func (o *Outbox) FailUpdate(_ context.Context, id uint64, giveUp bool) error {
	return o.set(id, func(row *model.AccountOutbox) {
		if giveUp {
			row.Status = model.OutboxFailed
		}
		row.Retry++
	})
}

func (o *Outbox) set(id uint64, fn func(*model.AccountOutbox)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.Rows {
		if o.Rows[i].ID == id {
			fn(&o.Rows[i])
			return nil
		}
	}
	return pkg.NotFound("outbox row not found")
}

// Reader 把预置消息逐条交给消费者，读完后阻塞到 ctx 取消
type Reader struct {
	mu        sync.Mutex
	msgs      chan kafka.Message
	Committed []kafka.Message
}

func NewReader(msgs ...kafka.Message) *Reader {
	ch := make(chan kafka.Message, len(msgs))
	for _, m := range msgs {
		ch <- m
	}
	return &Reader{msgs: ch}
}

func (r *Reader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case m := <-r.msgs:
		return m, nil
	}
}

func (r *Reader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Committed = append(r.Committed, msgs...)
	return nil
}

func (r *Reader) CommittedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Committed)
}
