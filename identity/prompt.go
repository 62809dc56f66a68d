package identity

import "fmt"

// extractionPrompt anchors the output shape with three worked examples so
// smaller models stay on format.
const extractionPrompt = `Extract the person's full name and date of birth from the document text below.

Respond with ONLY a JSON object of this exact shape:
{"name": <string or null>, "dob": <string or null>}

Rules:
- "name" is the person's full name as written in the document, or null if no name is present.
- "dob" is the date of birth in YYYY-MM-DD form when the full date is known.
- If only the birth year is known, "dob" is the 4-digit year, e.g. "1985".
- If no date of birth is present, "dob" is null.
- Do not add any text outside the JSON object.

Examples:
Text: "Name: Jane Smith, Date of Birth: 12 March 1985"
Output: {"name": "Jane Smith", "dob": "1985-03-12"}

Text: "The holder, Carlos Mendes, was born in 1972."
Output: {"name": "Carlos Mendes", "dob": "1972"}

Text: "Invoice #4821 for office supplies"
Output: {"name": null, "dob": null}

Document text:
%s`

func buildPrompt(documentText string) string {
	return fmt.Sprintf(extractionPrompt, documentText)
}
