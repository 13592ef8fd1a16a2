// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"strings"
	"text/template"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// explainTemplate instructs the model to answer only from the supplied
// evidence and to refuse with the canonical refusal string otherwise. The
// response contract is a single JSON object.
var explainTemplate = template.Must(template.New("explain").Parse(`You are a grounded question answering system. Answer the question using ONLY the evidence below. Do not use outside knowledge.

EVIDENCE:
{{- range .Paragraphs}}
[{{.ID}}] {{.Text}}
{{- end}}
{{- range .Equations}}
[{{.ID}}] {{.EquationText}}
{{- end}}

QUESTION: {{.Question}}

Equations are quoted verbatim from the source. Do not simplify, rewrite, or re-derive them.

If the evidence does not contain the answer, respond with the exact answer "{{.Refusal}}".

Respond with a single JSON object and nothing else:
{"answer": "<answer text>", "citations": ["<evidence id>", ...], "confidence": "high" or "low"}

Every citation must be one of the evidence IDs above.`))

// composeTemplate instructs the model to rewrite the evidence into a short
// narrative where every sentence carries exactly one citation and introduces
// nothing beyond the evidence.
var composeTemplate = template.Must(template.New("compose").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(`You are a grounded explanation composer. Rewrite the evidence below into a short narrative that answers the question.

EVIDENCE:
{{- range .Paragraphs}}
[{{.ID}}] {{.Text}}
{{- end}}
{{- range .Equations}}
[{{.ID}}] {{.EquationText}}
{{- end}}
{{- if .Groups}}

RELATED EVIDENCE GROUPS:
{{- range .Groups}}
- {{join .SourceIDs ", "}} share variables [{{join .SharedVariables ", "}}] and concepts [{{join .SharedConcepts ", "}}]
{{- end}}
{{- end}}

QUESTION: {{.Question}}

Rules:
1. Every sentence must be supported by exactly one evidence ID.
2. Do not mention any variable or technical concept that is absent from the evidence.
3. Use 2 to 5 sentences.

Respond with a single JSON object and nothing else:
{"composed_explanation": "<full text>", "sentences": [{"text": "<sentence>", "citation": "<evidence id>"}, ...]}`))

type promptData struct {
	Paragraphs []*types.Paragraph
	Equations  []*types.Equation
	Groups     []types.LinkedGroup
	Question   string
	Refusal    string
}

func renderExplainPrompt(paragraphs []*types.Paragraph, equations []*types.Equation, question string) (string, error) {
	var b strings.Builder
	err := explainTemplate.Execute(&b, promptData{
		Paragraphs: paragraphs,
		Equations:  equations,
		Question:   question,
		Refusal:    types.RefusalAnswer,
	})
	return b.String(), err
}

func renderComposePrompt(paragraphs []*types.Paragraph, equations []*types.Equation, groups []types.LinkedGroup, question string) (string, error) {
	var b strings.Builder
	err := composeTemplate.Execute(&b, promptData{
		Paragraphs: paragraphs,
		Equations:  equations,
		Groups:     groups,
		Question:   question,
	})
	return b.String(), err
}
