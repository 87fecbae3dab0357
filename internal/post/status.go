package post

import "fmt"

// Status is the publication state of a post.
type Status int

const (
	// Published posts carry no draft key in their front matter.
	Published Status = iota
	// Draft covers every stored status other than the literal "published":
	// drafts, scheduled posts, and any future Ghost status fail open to
	// Draft rather than erroring.
	Draft
)

// IsDraft reports whether the post should carry draft = true.
func (s Status) IsDraft() bool {
	return s != Published
}

// Scan implements sql.Scanner. It never fails on unexpected values; only a
// non-text column is an error.
func (s *Status) Scan(value any) error {
	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	case nil:
		str = ""
	default:
		return fmt.Errorf("post: cannot scan %T into Status", value)
	}
	if str == "published" {
		*s = Published
	} else {
		*s = Draft
	}
	return nil
}

func (s Status) String() string {
	if s.IsDraft() {
		return "draft"
	}
	return "published"
}
