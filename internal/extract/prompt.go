package extract

import (
	"fmt"

	"github.com/ppiankov/startupscout/internal/model"
)

const promptTemplate = `You are an advanced data extraction model.
Analyze unstructured Reddit comments about startups and extract structured data.
Return ONLY valid JSON array:

[
  {
    "%s": "",
    "%s": "",
    "%s": "",
    "%s": ""
  }
]

Comment:
%s
`

// BuildPrompt embeds a normalized comment in the fixed extraction instruction
func BuildPrompt(comment string) string {
	return fmt.Sprintf(promptTemplate,
		model.FieldStartupName,
		model.FieldLocation,
		model.FieldCompanyURL,
		model.FieldDescription,
		comment,
	)
}
