// Package media classifies message attachments against watch categories.
// Classification is a pure predicate over message metadata: absent or
// unknown metadata yields a non-match, never an error.
package media

import "fmt"

// Category selects which media kinds a rule or replay matches. The zero
// value is the default "common media" category used when the operator
// supplies no type token.
type Category int

const (
	// CategoryDefault matches common media: photos, images, video, audio.
	CategoryDefault Category = iota
	// CategoryAll matches any attachment except link-preview-only ones.
	CategoryAll
	// CategoryAllText matches every message, media or not.
	CategoryAllText
	// CategoryPhoto matches photos and image/* attachments.
	CategoryPhoto
	// CategoryVideo matches video/* attachments and platform-tagged videos.
	CategoryVideo
	// CategoryAudio matches audio/* attachments.
	CategoryAudio
	// CategoryDocument matches non-link attachments that are not
	// image, video or audio.
	CategoryDocument
	// CategoryText matches text/plain attachments and .txt files.
	CategoryText
)

var categoryNames = map[Category]string{
	CategoryDefault:  "media",
	CategoryAll:      "all",
	CategoryAllText:  "all-txt",
	CategoryPhoto:    "photo",
	CategoryVideo:    "video",
	CategoryAudio:    "audio",
	CategoryDocument: "document",
	CategoryText:     "text",
}

// ParseCategory decodes an operator-supplied category token. The empty
// string and "media" both mean the default category; "image" is accepted
// as an alias for "photo". Decoding happens once at the boundary so the
// classifier can match exhaustively over the variant.
func ParseCategory(token string) (Category, error) {
	switch token {
	case "", "media":
		return CategoryDefault, nil
	case "all":
		return CategoryAll, nil
	case "all-txt":
		return CategoryAllText, nil
	case "photo", "image":
		return CategoryPhoto, nil
	case "video":
		return CategoryVideo, nil
	case "audio":
		return CategoryAudio, nil
	case "document":
		return CategoryDocument, nil
	case "text":
		return CategoryText, nil
	}
	return CategoryDefault, fmt.Errorf("unknown media category %q", token)
}

// String returns the canonical token for the category.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "media"
}
