package binder

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/dukerupert/undangan/internal/model"
)

// scope builds the lookup roots available to data-bind paths.
func scope(ev *model.Event, guest *model.Guest) map[string]any {
	s := map[string]any{}
	if ev != nil {
		s["event"] = ev.Raw
		s["couple"] = ev.Couple
		s["content"] = ev.Content.Raw
	}
	if guest != nil {
		s["guest"] = guest.Raw
	}
	return s
}

// Lookup resolves a dot-separated path such as "couple.bride_name" or
// "content.gallery.0". Missing and non-scalar values yield "".
func Lookup(root map[string]any, path string) string {
	var cur any = root
	for _, part := range strings.Split(strings.TrimSpace(path), ".") {
		if part == "" {
			return ""
		}
		switch v := cur.(type) {
		case map[string]any:
			cur = v[part]
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(v) {
				return ""
			}
			cur = v[i]
		default:
			return ""
		}
	}
	return scalar(cur)
}

func scalar(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
