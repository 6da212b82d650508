package diet

import (
	"errors"
	"fmt"
)

// ErrPromptRequired is returned when a question is empty
var ErrPromptRequired = errors.New("prompt is required")

const dietPromptTemplate = "Generate a 7-day %s diet plan for a person who is %s years old, weighs %skg, is %scm tall, wants to %s, and is allergic to %s. " +
	"Format the response as a valid JSON object. " +
	`The root object should have keys for each day of the week (e.g., "Monday"). ` +
	`Each day should be an array of objects, where each object represents a meal and has two keys: "meal" (e.g., "Breakfast") and "items" (an array of food item strings). ` +
	"Do not include any text or markdown formatting before or after the JSON object."

// BuildDietPrompt renders the single-line instruction asking for a 7-day
// plan. Values are embedded as sent; missing allergies read "none".
func BuildDietPrompt(req DietRequest) string {
	allergies := "none"
	if !req.Allergies.Falsy() {
		allergies = req.Allergies.String()
	}

	return fmt.Sprintf(dietPromptTemplate,
		req.Preference,
		req.Age,
		req.Weight,
		req.Height,
		req.Goal,
		allergies,
	)
}

// BuildAskPrompt returns the question unchanged once it is known to be
// non-empty.
func BuildAskPrompt(text string) (string, error) {
	if text == "" {
		return "", ErrPromptRequired
	}
	return text, nil
}
