package ingest

import (
	"strings"
	"testing"
)

func TestContentTypeFromExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want ContentType
	}{
		{"md", TypeMarkdown},
		{"Markdown", TypeMarkdown},
		{"pdf", TypePDF},
		{"PDF", TypePDF},
		{"txt", TypePlainText},
		{"", TypePlainText},
		{"json", TypePlainText},
	}
	for _, tt := range tests {
		if got := ContentTypeFromExtension(tt.ext); got != tt.want {
			t.Errorf("ContentTypeFromExtension(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}

func TestMarkdownExtract(t *testing.T) {
	md := strings.Join([]string{
		"# Refund Policy",
		"",
		"Refunds are processed within *5 business days* of a request.",
		"",
		"- Contact [support](https://example.com/support) first",
		"- Include your order id",
		"",
		"```",
		"curl -X POST /refunds",
		"```",
	}, "\n")

	text, err := MarkdownExtractor{}.Extract([]byte(md))
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"Refund Policy", "5 business days", "Include your order id", "curl -X POST /refunds"} {
		if !strings.Contains(text, want) {
			t.Errorf("extracted text missing %q:\n%s", want, text)
		}
	}
	for _, unwanted := range []string{"#", "*", "](", "```"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("extracted text still contains %q:\n%s", unwanted, text)
		}
	}
	if !strings.Contains(text, "Refund Policy\n\n") {
		t.Errorf("block boundaries not preserved:\n%s", text)
	}
}

func TestMarkdownExtractEmpty(t *testing.T) {
	text, err := MarkdownExtractor{}.Extract(nil)
	if err != nil {
		t.Fatal(err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}

func TestPDFExtractRejectsGarbage(t *testing.T) {
	if _, err := (PDFExtractor{}).Extract([]byte("not a pdf")); err == nil {
		t.Error("want error for non-PDF content")
	}
	if _, err := (PDFExtractor{}).Extract(nil); err == nil {
		t.Error("want error for empty content")
	}
}
