package diet

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	domain "github.com/nutriplan/dietai/internal/domain/diet"
)

// InvalidJSONMessage is the error string of the envelope returned when the
// provider text is not JSON.
const InvalidJSONMessage = "AI did not return valid JSON"

// codeFence matches ```json (with an optional newline) and bare ``` markers
var codeFence = regexp.MustCompile("```json\\n?|```")

type invalidPlanEnvelope struct {
	Error string `json:"error"`
	Raw   string `json:"raw"`
}

// NormalizePlan strips code fences from the provider text and returns the
// JSON it contains verbatim. Text that does not parse is wrapped in an
// envelope carrying the original text; that is not an error.
func NormalizePlan(raw string) domain.PlanResult {
	text := strings.TrimSpace(codeFence.ReplaceAllString(raw, ""))

	var compacted bytes.Buffer
	if err := json.Compact(&compacted, []byte(text)); err == nil {
		return domain.PlanResult{Body: compacted.Bytes(), Valid: true}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding two strings cannot fail
	_ = enc.Encode(invalidPlanEnvelope{Error: InvalidJSONMessage, Raw: raw})

	return domain.PlanResult{Body: bytes.TrimRight(buf.Bytes(), "\n"), Valid: false}
}

// DecodePlan reads a normalized body as a weekday plan. It is a best-effort
// view for logging and metrics; the body returned to clients never depends
// on it.
func DecodePlan(body json.RawMessage) (domain.Plan, error) {
	var plan domain.Plan
	if err := json.Unmarshal(body, &plan); err != nil {
		return nil, err
	}
	return plan, nil
}
