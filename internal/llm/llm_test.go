package llm

import (
	"testing"

	vertexgenai "cloud.google.com/go/vertexai/genai"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `[{"title":"x"}]`, `[{"title":"x"}]`},
		{"json tag", "```json\n[1, 2]\n```", "[1, 2]"},
		{"upper tag", "```JSON\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[]\n```", "[]"},
		{"inline", "```[1]```", "[1]"},
		{"surrounding blanks", "  \n```json\n[1]\n```  \n", "[1]"},
		{"unterminated", "```json\n[1]", "[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.in); got != tt.want {
				t.Errorf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResponseText(t *testing.T) {
	resp := &vertexgenai.GenerateContentResponse{
		Candidates: []*vertexgenai.Candidate{
			nil,
			{Content: nil},
			{Content: &vertexgenai.Content{Parts: []vertexgenai.Part{
				vertexgenai.Text("[1,"),
				vertexgenai.Blob{MIMEType: "image/png"},
				vertexgenai.Text("2]"),
			}}},
		},
	}

	if got := responseText(resp); got != "[1,2]" {
		t.Errorf("responseText() = %q, want [1,2]", got)
	}
	if got := responseText(nil); got != "" {
		t.Errorf("responseText(nil) = %q, want empty", got)
	}
}
