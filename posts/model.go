// Package posts implements the post and comment data layer: a typed service
// over the /posts and /comments endpoints and a cached state container with
// optimistic mutation and rollback.
package posts

// PostStatus is the publication state of a post.
type PostStatus string

const (
	PostStatusPublished PostStatus = "published"
	PostStatusDraft     PostStatus = "draft"
)

// CommentStatus is the moderation state of a comment.
type CommentStatus string

const (
	CommentPublished CommentStatus = "published"
	CommentDeleted   CommentStatus = "deleted"
	CommentBlocked   CommentStatus = "blocked"
)

// Rating holds the like/dislike counters and the viewer's own rating flags.
// At most one of IsLiked/IsDisliked is true at any time.
type Rating struct {
	Likes      int  `json:"likes"`
	Dislikes   int  `json:"dislikes"`
	IsLiked    bool `json:"isLiked"`
	IsDisliked bool `json:"isDisliked"`
}

// Apply advances the rating state machine. rating true likes, false
// dislikes, nil removes the viewer's rating. Switching sides moves one
// count across; re-rating the same side increments again without
// deduplication, mirroring the backend's counting contract. Counts never
// go below zero.
func (r *Rating) Apply(rating *bool) {
	switch {
	case rating == nil:
		if r.IsLiked && r.Likes > 0 {
			r.Likes--
		}
		if r.IsDisliked && r.Dislikes > 0 {
			r.Dislikes--
		}
		r.IsLiked = false
		r.IsDisliked = false

	case *rating:
		if r.IsDisliked && r.Dislikes > 0 {
			r.Dislikes--
		}
		r.Likes++
		r.IsLiked = true
		r.IsDisliked = false

	default:
		if r.IsLiked && r.Likes > 0 {
			r.Likes--
		}
		r.Dislikes++
		r.IsDisliked = true
		r.IsLiked = false
	}
}

// RemoveInferred removes the viewer's rating, inferring the direction from
// the current flags. Used by post rating removal, which takes no explicit
// direction.
func (r *Rating) RemoveInferred() {
	if r.IsLiked && r.Likes > 0 {
		r.Likes--
	} else if r.IsDisliked && r.Dislikes > 0 {
		r.Dislikes--
	}
	r.IsLiked = false
	r.IsDisliked = false
}

// PostAuthor identifies the author of a post.
type PostAuthor struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// CommentAuthor identifies the author of a comment.
type CommentAuthor struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// CommentData is one comment without nesting. Replies reuse it as children
// of a Comment, so a reply structurally cannot hold further replies: the
// comment tree has depth two at most.
type CommentData struct {
	ID          int64          `json:"id"`
	Status      CommentStatus  `json:"status"`
	DateCreated string         `json:"date_created"`
	DateUpdated *string        `json:"date_updated"`
	Author      *CommentAuthor `json:"author,omitempty"`
	Content     string         `json:"content,omitempty"`
	Rating
	IsUserComment bool `json:"isUserComment,omitempty"`
}

// Comment is a top-level comment with its direct replies, newest first.
type Comment struct {
	CommentData
	Children []CommentData `json:"children,omitempty"`
}

func (c *Comment) clone() Comment {
	out := *c
	if c.Children != nil {
		out.Children = make([]CommentData, len(c.Children))
		copy(out.Children, c.Children)
	}
	return out
}

// SelectedModel is the vehicle configuration a post documents.
type SelectedModel struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Brand struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Logo string `json:"logo"`
	} `json:"brand"`
	Generation struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Image string `json:"image"`
	} `json:"generation"`
	HullType struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"hull_type"`
	Engine struct {
		ID         int64  `json:"id"`
		Name       string `json:"name"`
		Capacity   int    `json:"capacity"`
		HorsePower int    `json:"horse_power"`
		Fuel       struct {
			ID    int64  `json:"id"`
			Name  string `json:"name"`
			Color string `json:"color"`
		} `json:"fuel"`
	} `json:"engine"`
}

// Post is the summary view of a post, as served by the list endpoint.
type Post struct {
	ID          int64      `json:"id"`
	Status      PostStatus `json:"status"`
	DateCreated string     `json:"date_created"`
	DateUpdated string     `json:"date_updated"`
	Title       string     `json:"title"`
	Abstract    string     `json:"abstract"`
	Rating
	Model    SelectedModel `json:"model"`
	Comments []Comment     `json:"comments"`
	Author   PostAuthor    `json:"author"`
}

// Clone returns a deep copy: mutating the copy's comments cannot touch the
// original.
func (p *Post) Clone() Post {
	out := *p
	if p.Comments != nil {
		out.Comments = make([]Comment, len(p.Comments))
		for i := range p.Comments {
			out.Comments[i] = p.Comments[i].clone()
		}
	}
	return out
}

// SectionType discriminates post content sections.
type SectionType string

const (
	SectionText  SectionType = "text"
	SectionImage SectionType = "image"
)

// ContentSection is one block of a post's body: prose or an image.
type ContentSection struct {
	Type    SectionType `json:"type"`
	Size    int         `json:"size,omitempty"`
	Content string      `json:"content"`
	File    string      `json:"file,omitempty"`
}

// DetailedPost is the full-content view of a post, as served by the detail
// endpoint.
type DetailedPost struct {
	Post
	Content []ContentSection `json:"content"`
}

// Clone returns a deep copy of the detailed post.
func (p *DetailedPost) Clone() DetailedPost {
	out := DetailedPost{Post: p.Post.Clone()}
	if p.Content != nil {
		out.Content = make([]ContentSection, len(p.Content))
		copy(out.Content, p.Content)
	}
	return out
}

// ListMeta is the paging metadata of the list cache.
type ListMeta struct {
	Page  int `json:"page"`
	Total int `json:"total"`
}

// ListResult is the list endpoint payload.
type ListResult struct {
	Posts []Post   `json:"posts"`
	Meta  ListMeta `json:"meta"`
}
