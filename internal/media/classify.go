package media

import (
	"strings"

	"github.com/hkuds/relaybot/internal/platform"
)

// Matches reports whether a message belongs to the given category.
//
// Stickers and animated images are noise and never match, whatever the
// category — except CategoryAllText, which matches unconditionally and is
// exempt from the exclusion. Live routing, batch replay and offset
// resolution all share this single predicate; replay offsets are only
// valid because they do.
func Matches(msg platform.Message, cat Category) bool {
	if cat == CategoryAllText {
		return true
	}

	m := msg.Media
	if isSticker(m) || isAnimated(m) {
		return false
	}

	switch cat {
	case CategoryAll:
		return m != nil && !m.WebPreview
	case CategoryDefault:
		return isPhoto(m) || isVideo(m) || mimeHasPrefix(m, "image/") || mimeHasPrefix(m, "audio/")
	case CategoryPhoto:
		return isPhoto(m) || mimeHasPrefix(m, "image/")
	case CategoryVideo:
		return isVideo(m)
	case CategoryAudio:
		return mimeHasPrefix(m, "audio/")
	case CategoryDocument:
		return m != nil && m.Document &&
			!mimeHasPrefix(m, "image/") && !mimeHasPrefix(m, "video/") && !mimeHasPrefix(m, "audio/")
	case CategoryText:
		return isTextFile(m)
	}
	return false
}

func isPhoto(m *platform.Media) bool {
	return m != nil && m.Photo
}

func isVideo(m *platform.Media) bool {
	return m != nil && (m.Video || strings.HasPrefix(m.MIME, "video/"))
}

func isTextFile(m *platform.Media) bool {
	if m == nil || !m.Document {
		return false
	}
	return m.MIME == "text/plain" || strings.HasSuffix(m.FileName, ".txt")
}

func isSticker(m *platform.Media) bool {
	if m == nil {
		return false
	}
	return m.Sticker || m.MIME == "application/x-tgsticker"
}

func isAnimated(m *platform.Media) bool {
	return m != nil && m.MIME == "image/gif"
}

func mimeHasPrefix(m *platform.Media, prefix string) bool {
	return m != nil && strings.HasPrefix(m.MIME, prefix)
}
