package posts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/DriveDocs-Network/data_layer/client"
)

// Sort orders accepted by the list endpoint.
const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortPopular = "popular"
)

// ListOptions narrows the post listing. Zero values are omitted from the
// query string.
type ListOptions struct {
	Search     string
	Sort       string
	DateFrom   *time.Time
	Brand      int64
	Model      int64
	Generation int64
	Author     string
	Page       int
}

func (o *ListOptions) query() url.Values {
	q := url.Values{}
	if o == nil {
		return q
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	if o.DateFrom != nil {
		q.Set("dateFrom", o.DateFrom.UTC().Format(time.RFC3339))
	}
	if o.Brand != 0 {
		q.Set("brand", strconv.FormatInt(o.Brand, 10))
	}
	if o.Model != 0 {
		q.Set("model", strconv.FormatInt(o.Model, 10))
	}
	if o.Generation != 0 {
		q.Set("generation", strconv.FormatInt(o.Generation, 10))
	}
	if o.Author != "" {
		q.Set("author", o.Author)
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	return q
}

// Service talks to the post and comment endpoints.
type Service struct {
	client *client.Client
}

// NewService returns a post service over the given gateway.
func NewService(c *client.Client) *Service {
	return &Service{client: c}
}

// List fetches one page of posts. The viewer's rating flags are populated
// when a session exists, so the request goes through the authenticated path
// whenever the user is logged in.
func (s *Service) List(ctx context.Context, opts *ListOptions) (*ListResult, error) {
	route := "/posts"
	if q := opts.query(); len(q) > 0 {
		route += "?" + q.Encode()
	}

	var body []byte
	var err error
	if s.client.LoggedIn() {
		body, err = s.client.DoAuthenticated(ctx, http.MethodGet, route, nil)
	} else {
		body, err = s.client.Do(ctx, http.MethodGet, route, nil)
	}
	if err != nil {
		return nil, err
	}

	var result ListResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Get fetches the full content of one post.
func (s *Service) Get(ctx context.Context, id int64) (*DetailedPost, error) {
	route := "/posts/" + strconv.FormatInt(id, 10)

	var body []byte
	var err error
	if s.client.LoggedIn() {
		body, err = s.client.DoAuthenticated(ctx, http.MethodGet, route, nil)
	} else {
		body, err = s.client.Do(ctx, http.MethodGet, route, nil)
	}
	if err != nil {
		return nil, err
	}

	var post DetailedPost
	if err := json.Unmarshal(body, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Create submits a new post as multipart form data and returns the stored
// post.
func (s *Service) Create(ctx context.Context, draft PostDraft) (*DetailedPost, error) {
	form, contentType, err := buildPostForm(draft)
	if err != nil {
		return nil, err
	}

	body, err := s.client.DoAuthenticatedForm(ctx, http.MethodPost, "/posts", form, contentType)
	if err != nil {
		return nil, err
	}

	var post DetailedPost
	if err := json.Unmarshal(body, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Edit updates an existing post. Image sections without a new file keep
// their stored reference; only fresh uploads are attached to the form.
func (s *Service) Edit(ctx context.Context, id int64, draft PostDraft) (*DetailedPost, error) {
	form, contentType, err := buildPostForm(draft)
	if err != nil {
		return nil, err
	}

	route := "/posts/" + strconv.FormatInt(id, 10)
	body, err := s.client.DoAuthenticatedForm(ctx, http.MethodPatch, route, form, contentType)
	if err != nil {
		return nil, err
	}

	var post DetailedPost
	if err := json.Unmarshal(body, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Delete removes a post.
func (s *Service) Delete(ctx context.Context, id int64) error {
	route := "/posts/" + strconv.FormatInt(id, 10)
	_, err := s.client.DoAuthenticated(ctx, http.MethodDelete, route, nil)
	return err
}

// Rate sets the viewer's rating on a post: true likes, false dislikes.
func (s *Service) Rate(ctx context.Context, id int64, rating bool) error {
	route := "/posts/rate/" + strconv.FormatInt(id, 10)
	_, err := s.client.DoAuthenticated(ctx, http.MethodPost, route, map[string]any{
		"rating": rating,
	})
	return err
}

// RemoveRating clears the viewer's rating on a post.
func (s *Service) RemoveRating(ctx context.Context, id int64) error {
	route := "/posts/rate/" + strconv.FormatInt(id, 10)
	_, err := s.client.DoAuthenticated(ctx, http.MethodDelete, route, nil)
	return err
}

// Report files a complaint against a post.
func (s *Service) Report(ctx context.Context, id int64, content string) error {
	_, err := s.client.DoAuthenticated(ctx, http.MethodPost, "/posts/report", map[string]any{
		"post":    id,
		"content": content,
	})
	return err
}

// AddComment posts a comment. A non-nil parent makes it a reply to that
// top-level comment.
func (s *Service) AddComment(ctx context.Context, postID int64, content string, parent *int64) (*Comment, error) {
	payload := map[string]any{
		"post":    postID,
		"content": content,
	}
	if parent != nil {
		payload["parent"] = *parent
	}

	body, err := s.client.DoAuthenticated(ctx, http.MethodPost, "/comments", payload)
	if err != nil {
		return nil, err
	}

	var comment Comment
	if err := json.Unmarshal(body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// EditComment replaces a comment's content and returns the updated record.
func (s *Service) EditComment(ctx context.Context, id int64, content string) (*CommentData, error) {
	route := "/comments/" + strconv.FormatInt(id, 10)
	body, err := s.client.DoAuthenticated(ctx, http.MethodPatch, route, map[string]any{
		"content": content,
	})
	if err != nil {
		return nil, err
	}

	var comment CommentData
	if err := json.Unmarshal(body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a comment.
func (s *Service) DeleteComment(ctx context.Context, id int64) error {
	route := "/comments/" + strconv.FormatInt(id, 10)
	_, err := s.client.DoAuthenticated(ctx, http.MethodDelete, route, nil)
	return err
}

// RateComment sets or clears the viewer's rating on a comment. rating true
// likes, false dislikes, nil removes the rating.
func (s *Service) RateComment(ctx context.Context, id int64, rating *bool) error {
	route := "/comments/rate/" + strconv.FormatInt(id, 10)
	_, err := s.client.DoAuthenticated(ctx, http.MethodPost, route, map[string]any{
		"comment": id,
		"rating":  rating,
	})
	return err
}

// ReportComment files a complaint against a comment.
func (s *Service) ReportComment(ctx context.Context, id int64, content string) error {
	_, err := s.client.DoAuthenticated(ctx, http.MethodPost, "/comments/report", map[string]any{
		"comment": id,
		"content": content,
	})
	return err
}
