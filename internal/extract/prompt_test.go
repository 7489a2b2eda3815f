package extract

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	comment := "Founder of Acme AI in Berlin, acme.ai"
	prompt := BuildPrompt(comment)

	for _, want := range []string{
		"advanced data extraction model",
		"Return ONLY valid JSON array",
		`"startup_name": ""`,
		`"location": ""`,
		`"company_url": ""`,
		`"description": ""`,
		"Comment:\n" + comment,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}

	if !strings.HasSuffix(prompt, comment+"\n") {
		t.Error("Expected the comment to close the prompt")
	}
}

func TestBuildPromptShapeExampleParses(t *testing.T) {
	records, err := ParseResponse(BuildPrompt("anything"))
	if err != nil {
		t.Fatalf("Expected the shape example to be valid JSON, got %v", err)
	}
	if len(records) != 1 || !records[0].IsEmpty() {
		t.Errorf("Expected one empty record from the shape example, got %+v", records)
	}
}
