package security

import (
	"strings"
	"testing"
)

// TestSanitize_AllowedTags は許可タグが正しく通過することを検証する。
func TestSanitize_AllowedTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name         string
		input        string
		wantContains []string
	}{
		{
			name:         "codeタグが許可される",
			input:        "Avoid <code>eval()</code> here.",
			wantContains: []string{"<code>eval()</code>"},
		},
		{
			name:         "strongタグが許可される",
			input:        "<strong>Critical</strong> issue",
			wantContains: []string{"<strong>Critical</strong>"},
		},
		{
			name:         "emタグが許可される",
			input:        "<em>consider</em> refactoring",
			wantContains: []string{"<em>consider</em>"},
		},
		{
			name:         "brタグが許可される",
			input:        "line1<br>line2",
			wantContains: []string{"<br", "line1", "line2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitize_ForbiddenTags は許可されないタグと属性が除去されることを検証する。
func TestSanitize_ForbiddenTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name         string
		input        string
		wantAbsent   []string
		wantContains []string
	}{
		{
			name:         "scriptタグが内容ごと除去される",
			input:        `Summary<script>alert("xss")</script>`,
			wantAbsent:   []string{"<script", "alert"},
			wantContains: []string{"Summary"},
		},
		{
			name:         "styleタグが除去される",
			input:        `<style>body{display:none}</style>ok`,
			wantAbsent:   []string{"<style", "display:none"},
			wantContains: []string{"ok"},
		},
		{
			name:         "aタグが除去されテキストは残る",
			input:        `<a href="javascript:alert(1)">click</a>`,
			wantAbsent:   []string{"<a", "javascript:"},
			wantContains: []string{"click"},
		},
		{
			name:         "imgタグが除去される",
			input:        `<img src="x" onerror="alert(1)">`,
			wantAbsent:   []string{"<img", "onerror"},
		},
		{
			name:         "許可タグの属性が除去される",
			input:        `<code onclick="alert(1)" class="x">f()</code>`,
			wantAbsent:   []string{"onclick", "class"},
			wantContains: []string{"<code>f()</code>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("Sanitize(%q) = %q, should NOT contain %q", tt.input, got, absent)
				}
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitize_EmptyInput は空文字列の入力に空文字列を返すことを検証する。
func TestSanitize_EmptyInput(t *testing.T) {
	sanitizer := NewContentSanitizer()

	if got := sanitizer.Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, expected empty string", got)
	}
}

// TestSanitize_PlainText はマークアップを含まないテキストがそのまま返されることを検証する。
func TestSanitize_PlainText(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := "The code is clean and well structured."
	if got := sanitizer.Sanitize(input); got != input {
		t.Errorf("Sanitize(%q) = %q, expected unchanged", input, got)
	}
}

// TestSanitize_Idempotent は二重サニタイズで結果が変わらないことを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `Use <code>const</code><script>x()</script> instead.`
	first := sanitizer.Sanitize(input)
	second := sanitizer.Sanitize(first)
	if first != second {
		t.Errorf("Sanitize is not idempotent: %q -> %q", first, second)
	}
}
