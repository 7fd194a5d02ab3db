package posts

import "testing"

func boolPtr(v bool) *bool { return &v }

func TestRatingApplyTransitions(t *testing.T) {
	tests := []struct {
		name   string
		start  Rating
		rating *bool
		want   Rating
	}{
		{
			"like from neutral",
			Rating{Likes: 5, Dislikes: 2},
			boolPtr(true),
			Rating{Likes: 6, Dislikes: 2, IsLiked: true},
		},
		{
			"like while disliked moves one across",
			Rating{Likes: 5, Dislikes: 2, IsDisliked: true},
			boolPtr(true),
			Rating{Likes: 6, Dislikes: 1, IsLiked: true},
		},
		{
			"dislike while liked moves one across",
			Rating{Likes: 5, Dislikes: 2, IsLiked: true},
			boolPtr(false),
			Rating{Likes: 4, Dislikes: 3, IsDisliked: true},
		},
		{
			// The backend counts repeated likes without deduplication; the
			// local state machine mirrors that.
			"re-like increments again",
			Rating{Likes: 5, IsLiked: true},
			boolPtr(true),
			Rating{Likes: 6, IsLiked: true},
		},
		{
			"remove while liked",
			Rating{Likes: 5, Dislikes: 2, IsLiked: true},
			nil,
			Rating{Likes: 4, Dislikes: 2},
		},
		{
			"remove while neutral is a no-op on counts",
			Rating{Likes: 5, Dislikes: 2},
			nil,
			Rating{Likes: 5, Dislikes: 2},
		},
		{
			"counts clamp at zero",
			Rating{Likes: 0, Dislikes: 0, IsLiked: true},
			nil,
			Rating{},
		},
		{
			"switch with zero source count",
			Rating{Likes: 0, Dislikes: 0, IsDisliked: true},
			boolPtr(true),
			Rating{Likes: 1, IsLiked: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.start
			r.Apply(tt.rating)
			if r != tt.want {
				t.Fatalf("Apply() = %+v, want %+v", r, tt.want)
			}
			if r.IsLiked && r.IsDisliked {
				t.Fatal("both rating flags set")
			}
		})
	}
}

func TestRemoveInferred(t *testing.T) {
	liked := Rating{Likes: 3, Dislikes: 1, IsLiked: true}
	liked.RemoveInferred()
	if (liked != Rating{Likes: 2, Dislikes: 1}) {
		t.Fatalf("liked removal = %+v", liked)
	}

	disliked := Rating{Likes: 3, Dislikes: 1, IsDisliked: true}
	disliked.RemoveInferred()
	if (disliked != Rating{Likes: 3, Dislikes: 0}) {
		t.Fatalf("disliked removal = %+v", disliked)
	}

	neutral := Rating{Likes: 3, Dislikes: 1}
	neutral.RemoveInferred()
	if (neutral != Rating{Likes: 3, Dislikes: 1}) {
		t.Fatalf("neutral removal = %+v", neutral)
	}
}

func TestPostCloneIsDeep(t *testing.T) {
	p := Post{
		ID: 1,
		Comments: []Comment{{
			CommentData: CommentData{ID: 10, Content: "top"},
			Children:    []CommentData{{ID: 11, Content: "reply"}},
		}},
	}

	c := p.Clone()
	c.Comments[0].Content = "mutated"
	c.Comments[0].Children[0].Content = "mutated"

	if p.Comments[0].Content != "top" || p.Comments[0].Children[0].Content != "reply" {
		t.Fatal("Clone() shares comment storage with the original")
	}
}
