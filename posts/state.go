package posts

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/DriveDocs-Network/data_layer/client"
	"github.com/DriveDocs-Network/data_layer/internal/metrics"
	"github.com/DriveDocs-Network/data_layer/notify"
)

// State caches posts on the client and applies mutations optimistically:
// the cached copy is updated first, the server is called second, and the
// pre-mutation snapshot is restored if the call fails. Two caches exist
// side by side, the paged list and the per-id detail map, and every
// mutation is applied to each cached copy of the affected post so the two
// never disagree.
//
// Mutations on the same post are serialized through a per-id lock, so an
// in-flight rollback cannot interleave with a second optimistic update of
// the same entity. Mutations on different posts proceed concurrently.
type State struct {
	mu      sync.RWMutex
	svc     *Service
	toasts  *notify.Queue
	metrics *metrics.Metrics
	log     zerolog.Logger

	posts   []*Post
	meta    *ListMeta
	details map[int64]*DetailedPost

	locks postLocks
}

// NewState creates a post state container. metrics may be nil.
func NewState(svc *Service, toasts *notify.Queue, m *metrics.Metrics, log zerolog.Logger) *State {
	return &State{
		svc:     svc,
		toasts:  toasts,
		metrics: m,
		log:     log,
		details: make(map[int64]*DetailedPost),
	}
}

// postLocks hands out one mutex per post id. Entries are never evicted;
// the map is bounded by the number of posts mutated in a session.
type postLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (g *postLocks) lock(id int64) func() {
	g.mu.Lock()
	if g.locks == nil {
		g.locks = make(map[int64]*sync.Mutex)
	}
	l, ok := g.locks[id]
	if !ok {
		l = &sync.Mutex{}
		g.locks[id] = l
	}
	g.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// =============================================================================
// Fetching and accessors
// =============================================================================

// FetchPosts loads one page of posts into the list cache, replacing the
// previous page.
func (st *State) FetchPosts(ctx context.Context, opts *ListOptions) error {
	result, err := st.svc.List(ctx, opts)
	if err != nil {
		st.toasts.Error("Posts", "Could not load posts")
		return err
	}

	posts := make([]*Post, len(result.Posts))
	for i := range result.Posts {
		p := result.Posts[i]
		posts[i] = &p
	}

	st.mu.Lock()
	st.posts = posts
	meta := result.Meta
	st.meta = &meta
	st.mu.Unlock()
	return nil
}

// FetchPost loads the full content of one post into the detail cache,
// replacing any earlier copy.
func (st *State) FetchPost(ctx context.Context, id int64) error {
	post, err := st.svc.Get(ctx, id)
	if err != nil {
		st.toasts.Error("Posts", "Could not load post")
		return err
	}

	st.mu.Lock()
	st.details[id] = post
	st.mu.Unlock()
	return nil
}

// Posts returns deep copies of the cached page.
func (st *State) Posts() []Post {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]Post, len(st.posts))
	for i, p := range st.posts {
		out[i] = p.Clone()
	}
	return out
}

// Meta returns the paging metadata of the cached page, or nil before the
// first fetch.
func (st *State) Meta() *ListMeta {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.meta == nil {
		return nil
	}
	meta := *st.meta
	return &meta
}

// Detail returns a deep copy of the cached detailed post, or nil when the
// id has not been fetched.
func (st *State) Detail(id int64) *DetailedPost {
	st.mu.RLock()
	defer st.mu.RUnlock()
	d, ok := st.details[id]
	if !ok {
		return nil
	}
	out := d.Clone()
	return &out
}

// Reset drops both caches.
func (st *State) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.posts = nil
	st.meta = nil
	st.details = make(map[int64]*DetailedPost)
}

// findPost returns pointers to every cached copy of the post: at most one
// from the list page and one from the detail map. Callers hold st.mu.
func (st *State) findPost(id int64) []*Post {
	var out []*Post
	for _, p := range st.posts {
		if p.ID == id {
			out = append(out, p)
			break
		}
	}
	if d, ok := st.details[id]; ok {
		out = append(out, &d.Post)
	}
	return out
}

func snapshot(targets []*Post) []Post {
	out := make([]Post, len(targets))
	for i, p := range targets {
		out[i] = p.Clone()
	}
	return out
}

func restore(targets []*Post, snap []Post) {
	for i, p := range targets {
		*p = snap[i]
	}
}

// =============================================================================
// Post mutations
// =============================================================================

// RatePost likes (true) or dislikes (false) a post. The cached copies are
// updated before the server call; on failure they are restored bitwise to
// their pre-mutation value. A post absent from both caches only raises a
// toast: nothing is sent to the server.
func (st *State) RatePost(ctx context.Context, id int64, rating bool) error {
	unlock := st.locks.lock(id)
	defer unlock()

	st.mu.Lock()
	targets := st.findPost(id)
	if len(targets) == 0 {
		st.mu.Unlock()
		st.toasts.Error("Posts", "Post not found")
		return nil
	}
	snap := snapshot(targets)
	for _, p := range targets {
		r := rating
		p.Rating.Apply(&r)
	}
	st.mu.Unlock()

	if err := st.svc.Rate(ctx, id, rating); err != nil {
		st.rollback(targets, snap, "rate_post", id)
		st.toasts.Error("Posts", "Could not rate post")
		return err
	}
	return nil
}

// DeleteRating removes the viewer's rating from a post, inferring the
// direction to decrement from the cached flags.
func (st *State) DeleteRating(ctx context.Context, id int64) error {
	unlock := st.locks.lock(id)
	defer unlock()

	st.mu.Lock()
	targets := st.findPost(id)
	if len(targets) == 0 {
		st.mu.Unlock()
		st.toasts.Error("Posts", "Post not found")
		return nil
	}
	snap := snapshot(targets)
	for _, p := range targets {
		p.Rating.RemoveInferred()
	}
	st.mu.Unlock()

	if err := st.svc.RemoveRating(ctx, id); err != nil {
		st.rollback(targets, snap, "delete_post_rating", id)
		st.toasts.Error("Posts", "Could not remove rating")
		return err
	}
	return nil
}

// AddPost creates a post. The caches are left alone: the list is paged and
// refetched by the caller after a successful create.
func (st *State) AddPost(ctx context.Context, draft PostDraft) (*DetailedPost, error) {
	post, err := st.svc.Create(ctx, draft)
	if err != nil {
		st.toasts.Error("Posts", "Could not create post")
		return nil, err
	}
	st.toasts.Success("Posts", "Post created")
	return post, nil
}

// EditPost updates a post and folds the server's response into both
// caches.
func (st *State) EditPost(ctx context.Context, id int64, draft PostDraft) (*DetailedPost, error) {
	unlock := st.locks.lock(id)
	defer unlock()

	post, err := st.svc.Edit(ctx, id, draft)
	if err != nil {
		st.toasts.Error("Posts", "Could not update post")
		return nil, err
	}

	st.mu.Lock()
	for _, p := range st.posts {
		if p.ID == id {
			p.Status = post.Status
			p.Title = post.Title
			p.Abstract = post.Abstract
			p.DateUpdated = post.DateUpdated
			p.Model = post.Model
			break
		}
	}
	if _, ok := st.details[id]; ok {
		updated := post.Clone()
		st.details[id] = &updated
	}
	st.mu.Unlock()

	st.toasts.Success("Posts", "Post updated")
	return post, nil
}

// DeletePost removes a post from the server and from both caches.
func (st *State) DeletePost(ctx context.Context, id int64) error {
	unlock := st.locks.lock(id)
	defer unlock()

	if err := st.svc.Delete(ctx, id); err != nil {
		st.toasts.Error("Posts", "Could not delete post")
		return err
	}

	st.mu.Lock()
	for i, p := range st.posts {
		if p.ID == id {
			st.posts = append(st.posts[:i], st.posts[i+1:]...)
			if st.meta != nil && st.meta.Total > 0 {
				st.meta.Total--
			}
			break
		}
	}
	delete(st.details, id)
	st.mu.Unlock()

	st.toasts.Success("Posts", "Post deleted")
	return nil
}

// ReportPost files a complaint against a post.
func (st *State) ReportPost(ctx context.Context, id int64, content string) error {
	if err := st.svc.Report(ctx, id, content); err != nil {
		st.toasts.Error("Posts", "Could not send report")
		return err
	}
	st.toasts.Success("Posts", "Report sent")
	return nil
}

// =============================================================================
// Comment mutations
// =============================================================================

// commentLoc addresses one cached copy of a comment: the owning post, the
// index of its top-level comment and, for replies, the child index.
type commentLoc struct {
	post  *Post
	top   int
	child int // -1 for top-level comments
}

func (l commentLoc) data() *CommentData {
	if l.child < 0 {
		return &l.post.Comments[l.top].CommentData
	}
	return &l.post.Comments[l.top].Children[l.child]
}

// findComment locates every cached copy of the comment and the id of the
// post that owns it. Callers hold st.mu.
func (st *State) findComment(id int64) (int64, []commentLoc) {
	var postID int64
	var locs []commentLoc

	scan := func(p *Post) {
		for i := range p.Comments {
			if p.Comments[i].ID == id {
				postID = p.ID
				locs = append(locs, commentLoc{post: p, top: i, child: -1})
				return
			}
			for j := range p.Comments[i].Children {
				if p.Comments[i].Children[j].ID == id {
					postID = p.ID
					locs = append(locs, commentLoc{post: p, top: i, child: j})
					return
				}
			}
		}
	}

	for _, p := range st.posts {
		scan(p)
	}
	for _, d := range st.details {
		scan(&d.Post)
	}
	return postID, locs
}

// commentPostID resolves which post owns the comment without mutating
// anything, so the per-post lock can be taken before the real lookup.
func (st *State) commentPostID(id int64) (int64, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	postID, locs := st.findComment(id)
	return postID, len(locs) > 0
}

func uniquePosts(locs []commentLoc) []*Post {
	var out []*Post
	for _, l := range locs {
		seen := false
		for _, p := range out {
			if p == l.post {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, l.post)
		}
	}
	return out
}

// AddComment posts a comment or, with a non-nil parent, a reply. The
// comment is prepended optimistically to every cached copy of the thread,
// then reconciled with the server's response; on failure the caches are
// rolled back. A missing post or parent comment fails locally without a
// network call.
func (st *State) AddComment(ctx context.Context, postID int64, content string, parent *int64) error {
	unlock := st.locks.lock(postID)
	defer unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	placeholder := CommentData{
		Status:        CommentPublished,
		DateCreated:   now,
		Content:       content,
		IsUserComment: true,
	}

	st.mu.Lock()
	targets := st.findPost(postID)
	if len(targets) == 0 {
		st.mu.Unlock()
		st.toasts.Error("Comments", "Post not found")
		return client.NotFoundError("post")
	}

	snap := snapshot(targets)
	if parent != nil {
		attached := false
		for _, p := range targets {
			for i := range p.Comments {
				if p.Comments[i].ID == *parent {
					p.Comments[i].Children = append([]CommentData{placeholder}, p.Comments[i].Children...)
					attached = true
					break
				}
			}
		}
		if !attached {
			restore(targets, snap)
			st.mu.Unlock()
			st.toasts.Error("Comments", "Comment not found")
			return client.NotFoundError("comment")
		}
	} else {
		for _, p := range targets {
			p.Comments = append([]Comment{{CommentData: placeholder}}, p.Comments...)
		}
	}
	st.mu.Unlock()

	created, err := st.svc.AddComment(ctx, postID, content, parent)
	if err != nil {
		st.rollback(targets, snap, "add_comment", postID)
		st.toasts.Error("Comments", "Could not add comment")
		return err
	}

	// Reconcile: the server's fields win over the placeholder.
	st.mu.Lock()
	merged := created.CommentData
	merged.IsUserComment = true
	if merged.Status == "" {
		merged.Status = CommentPublished
	}
	if parent != nil {
		for _, p := range targets {
			for i := range p.Comments {
				if p.Comments[i].ID == *parent && len(p.Comments[i].Children) > 0 {
					p.Comments[i].Children[0] = merged
					break
				}
			}
		}
	} else {
		for _, p := range targets {
			if len(p.Comments) > 0 {
				p.Comments[0] = Comment{CommentData: merged}
			}
		}
	}
	st.mu.Unlock()
	return nil
}

// EditComment replaces a comment's content in every cached copy, then on
// the server, rolling back on failure. A comment absent from the caches
// fails with a not-found error and no network call.
func (st *State) EditComment(ctx context.Context, id int64, content string) error {
	postID, ok := st.commentPostID(id)
	if !ok {
		st.toasts.Error("Comments", "Comment not found")
		return client.NotFoundError("comment")
	}

	unlock := st.locks.lock(postID)
	defer unlock()

	st.mu.Lock()
	_, locs := st.findComment(id)
	if len(locs) == 0 {
		st.mu.Unlock()
		st.toasts.Error("Comments", "Comment not found")
		return client.NotFoundError("comment")
	}
	targets := uniquePosts(locs)
	snap := snapshot(targets)
	now := time.Now().UTC().Format(time.RFC3339)
	for _, l := range locs {
		d := l.data()
		d.Content = content
		updated := now
		d.DateUpdated = &updated
	}
	st.mu.Unlock()

	edited, err := st.svc.EditComment(ctx, id, content)
	if err != nil {
		st.rollback(targets, snap, "edit_comment", postID)
		st.toasts.Error("Comments", "Could not update comment")
		return err
	}

	st.mu.Lock()
	for _, l := range locs {
		d := l.data()
		d.Content = edited.Content
		d.DateUpdated = edited.DateUpdated
	}
	st.mu.Unlock()
	return nil
}

// DeleteComment removes a comment. A top-level comment that still has
// replies is soft-deleted in place, keeping the thread readable; anything
// else is spliced out of its sequence. The caches mutate first and roll
// back if the server call fails. A comment absent from the caches fails
// with a not-found error and no network call.
func (st *State) DeleteComment(ctx context.Context, id int64) error {
	postID, ok := st.commentPostID(id)
	if !ok {
		st.toasts.Error("Comments", "Comment not found")
		return client.NotFoundError("comment")
	}

	unlock := st.locks.lock(postID)
	defer unlock()

	st.mu.Lock()
	_, locs := st.findComment(id)
	if len(locs) == 0 {
		st.mu.Unlock()
		st.toasts.Error("Comments", "Comment not found")
		return client.NotFoundError("comment")
	}
	targets := uniquePosts(locs)
	snap := snapshot(targets)

	// Soft-delete when any cached copy still carries replies, so the two
	// caches take the same path.
	soft := false
	for _, l := range locs {
		if l.child < 0 && len(l.post.Comments[l.top].Children) > 0 {
			soft = true
			break
		}
	}

	for _, l := range locs {
		if l.child >= 0 {
			top := &l.post.Comments[l.top]
			top.Children = append(top.Children[:l.child], top.Children[l.child+1:]...)
			continue
		}
		if soft {
			c := &l.post.Comments[l.top]
			c.Status = CommentDeleted
			c.Content = ""
			c.Author = nil
		} else {
			l.post.Comments = append(l.post.Comments[:l.top], l.post.Comments[l.top+1:]...)
		}
	}
	st.mu.Unlock()

	if err := st.svc.DeleteComment(ctx, id); err != nil {
		st.rollback(targets, snap, "delete_comment", postID)
		st.toasts.Error("Comments", "Could not delete comment")
		return err
	}
	return nil
}

// RateComment likes (true), dislikes (false) or clears (nil) the viewer's
// rating on a comment, optimistically in every cached copy. A comment
// absent from the caches only raises a toast: nothing is sent to the
// server.
func (st *State) RateComment(ctx context.Context, id int64, rating *bool) error {
	postID, ok := st.commentPostID(id)
	if !ok {
		st.toasts.Error("Comments", "Comment not found")
		return nil
	}

	unlock := st.locks.lock(postID)
	defer unlock()

	st.mu.Lock()
	_, locs := st.findComment(id)
	if len(locs) == 0 {
		st.mu.Unlock()
		st.toasts.Error("Comments", "Comment not found")
		return nil
	}
	targets := uniquePosts(locs)
	snap := snapshot(targets)
	for _, l := range locs {
		l.data().Rating.Apply(rating)
	}
	st.mu.Unlock()

	if err := st.svc.RateComment(ctx, id, rating); err != nil {
		st.rollback(targets, snap, "rate_comment", postID)
		st.toasts.Error("Comments", "Could not rate comment")
		return err
	}
	return nil
}

// ReportComment files a complaint against a comment.
func (st *State) ReportComment(ctx context.Context, id int64, content string) error {
	if err := st.svc.ReportComment(ctx, id, content); err != nil {
		st.toasts.Error("Comments", "Could not send report")
		return err
	}
	st.toasts.Success("Comments", "Report sent")
	return nil
}

func (st *State) rollback(targets []*Post, snap []Post, operation string, id int64) {
	st.mu.Lock()
	restore(targets, snap)
	st.mu.Unlock()
	st.metrics.RecordRollback(operation)
	st.log.Warn().Str("operation", operation).Int64("id", id).Msg("mutation rolled back")
}
