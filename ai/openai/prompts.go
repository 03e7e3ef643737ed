package openai

const summaryResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "summary": {
      "type": "string"
    },
    "key_points": {
      "type": "array",
      "items": {
        "type": "string"
      }
    }
  },
  "required": ["summary", "key_points"],
  "additionalProperties": false
}`

const summaryPromptTemplate = `Summarize the given article or transcript and return the result as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

` + summaryResponseSchema + `

Rules:
- "summary" is 2-4 sentences of neutral prose covering what the content is about and its main conclusion.
- "key_points" lists 3-6 takeaways, one short sentence each, most important first.
- Draw only on the provided text. Do not add outside knowledge or speculation.
- If the text is too thin to summarize meaningfully, state that in the summary and return "key_points": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input:
Title: City council approves new bike lanes

The city council voted 7-2 on Tuesday to approve a network of protected bike
lanes covering twelve downtown streets. Construction begins in March and is
funded by the regional transit levy passed last year. Business owners raised
concerns about parking, which the council addressed by adding two new garages.

Output:
{
  "summary": "The city council approved a protected bike lane network across twelve downtown streets by a 7-2 vote. Construction starts in March, funded by last year's regional transit levy, and parking concerns from business owners were addressed with two new garages.",
  "key_points": [
    "Council voted 7-2 to approve protected bike lanes on twelve downtown streets.",
    "Construction begins in March, funded by the regional transit levy.",
    "Parking concerns were addressed by adding two new garages."
  ]
}`

// buildSummaryPrompt returns the system prompt for summarization.
func buildSummaryPrompt() string {
	return summaryPromptTemplate
}
