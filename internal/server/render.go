package server

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/SahilWadhwani/threathunt-console/internal/cases"
)

// md renders analyst-authored markdown (case descriptions, comments)
// for the dashboard.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// commentView is a comment with its body rendered to HTML.
type commentView struct {
	cases.Comment
	BodyHTML string `json:"body_html"`
}

// caseView is the dashboard case detail payload.
type caseView struct {
	*cases.Detail
	DescriptionHTML string        `json:"description_html,omitempty"`
	CommentViews    []commentView `json:"comment_views"`
}

func renderMarkdown(src string) (string, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

func renderCase(c *cases.Detail) (*caseView, error) {
	desc, err := renderMarkdown(c.Description)
	if err != nil {
		return nil, err
	}
	view := &caseView{Detail: c, DescriptionHTML: desc, CommentViews: []commentView{}}
	for _, cm := range c.Comments {
		body, err := renderMarkdown(cm.Body)
		if err != nil {
			return nil, err
		}
		view.CommentViews = append(view.CommentViews, commentView{Comment: cm, BodyHTML: body})
	}
	return view, nil
}
