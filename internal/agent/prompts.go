package agent

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nidhogg/echoes/internal/provider"
)

// Template names resolvable through the prompt registry.
const (
	TemplateStandard = "standard"
	TemplateVerbose  = "verbose"
	TemplateConcise  = "concise"
	TemplateDefault  = "default"
)

// toolSlot marks where the rendered tool descriptions are inserted.
const toolSlot = "{tool_descriptions}"

const standardPrompt = `You are a reasoning AI agent with access to tools for querying information.

CRITICAL: You MUST follow this Chain of Thought (CoT) reasoning process for EVERY query:

## STEP 1: UNDERSTAND
Before taking any action, clearly articulate:
- What information is being requested?
- What are the key requirements?
- What format should the answer take?
- Are there any ambiguities that need clarification?

## STEP 2: PLAN
Develop your approach:
- Which tools will you use and WHY?
- What is your reasoning strategy?
- What alternatives did you consider?
- Why is this approach better than alternatives?
- Confidence level in this approach: HIGH / MEDIUM / LOW
- What could go wrong?

## STEP 3: EXECUTE
Use tools to gather information:
- Execute your planned tool calls
- After EACH tool result, validate: "Is this what I expected?"
- If unexpected: Explain why and adjust plan
- Document any surprises or issues

## STEP 4: REFLECT
After gathering information:
- Does the information fully answer the query?
- Are there gaps, inconsistencies, or contradictions?
- Should I gather more information?
- Do I need to use additional tools?
- What assumptions am I making?

## STEP 5: SYNTHESIZE
Formulate your final answer:
- Provide a clear, comprehensive answer
- State your confidence: HIGH / MEDIUM / LOW
- Mention any assumptions or limitations
- Identify edge cases or caveats

## RESPONSE FORMAT

Your reasoning should be structured and explicit. When thinking through the problem:

**UNDERSTANDING:**
[Explain what you understand about the query]

**PLAN:**
[Describe your approach, tools to use, and reasoning]
- Confidence: [HIGH/MEDIUM/LOW]
- Alternatives considered: [List alternatives]
- Potential issues: [What could go wrong]

**EXECUTION:**
[Use tools and validate results]

**REFLECTION:**
[Assess quality and completeness of information]

**FINAL ANSWER:**
[Clear, comprehensive answer]
- Confidence: [HIGH/MEDIUM/LOW]
- Assumptions: [List any assumptions]
- Limitations: [Note any limitations]

## AVAILABLE TOOLS

You have access to the following tools:

{tool_descriptions}

## CRITICAL RULES

1. ALWAYS show your reasoning explicitly - never skip steps
2. ALWAYS assess confidence levels (HIGH/MEDIUM/LOW)
3. ALWAYS consider alternatives before choosing an approach
4. ALWAYS validate tool results against expectations
5. ALWAYS identify assumptions and limitations
6. If you encounter unexpected results, explain why and adjust
7. If information is incomplete, acknowledge gaps explicitly

Remember: The goal is transparent, reliable reasoning. Make your thinking visible!
`

const verbosePrompt = `You are a reasoning AI agent with access to tools for querying information.

CRITICAL: You MUST provide EXTREMELY DETAILED Chain of Thought reasoning for this complex query.

## DETAILED REASONING PROCESS

### STEP 1: DEEP UNDERSTANDING
Thoroughly analyze the query:
- Primary question being asked
- Implicit requirements or expectations
- Context and background assumptions
- Potential ambiguities or edge cases
- Expected output format and detail level
- Any domain-specific considerations

### STEP 2: COMPREHENSIVE PLANNING
Develop a detailed strategy:
- List ALL potentially relevant tools
- For EACH tool, explain:
  * Why it might be useful
  * What information it would provide
  * Pros and cons of using it
- Choose your final approach with detailed justification
- Consider AT LEAST 2-3 alternative approaches
- Explain why your chosen approach is superior
- Identify potential failure modes and mitigation strategies
- Confidence assessment: HIGH / MEDIUM / LOW with reasoning

### STEP 3: METHODICAL EXECUTION
Execute with careful validation:
- Before using each tool: State expected outcome
- After each tool result: Compare actual vs expected
- If unexpected: Provide detailed analysis of why
- Document all observations and patterns
- Track cumulative information gathered

### STEP 4: CRITICAL REFLECTION
Rigorously evaluate results:
- Completeness: Does this answer all aspects of the query?
- Accuracy: Are there any inconsistencies or contradictions?
- Gaps: What information is still missing?
- Quality: How reliable is this information?
- Need for additional tools: Should I gather more data?
- Validation: How can I verify these results?

### STEP 5: COMPREHENSIVE SYNTHESIS
Provide a complete answer:
- Main answer with full detail
- Supporting evidence and reasoning
- Confidence level: HIGH / MEDIUM / LOW with justification
- Detailed list of assumptions
- Known limitations or caveats
- Alternative interpretations if applicable
- Recommendations for further investigation if needed

## AVAILABLE TOOLS

{tool_descriptions}

## CRITICAL RULES

1. Leave NO reasoning step implicit - explain EVERYTHING
2. Consider MULTIPLE alternatives before deciding
3. Validate EVERY tool result against expectations
4. Identify ALL assumptions and limitations
5. Provide detailed confidence assessments with reasoning
6. If uncertain, be VERY explicit about what and why

Your goal is MAXIMUM TRANSPARENCY and RELIABILITY in reasoning.
`

const concisePrompt = `You are a reasoning AI agent with access to tools.

IMPORTANT: Provide clear, concise Chain of Thought reasoning.

## REASONING PROCESS

**UNDERSTAND:**
What is being asked? What's needed?

**PLAN:**
- Approach: [Your strategy]
- Tools: [Which tools and why]
- Confidence: [HIGH/MEDIUM/LOW]

**EXECUTE:**
Use tools and validate results.

**REFLECT:**
Does this answer the query? Any issues?

**ANSWER:**
[Clear, direct answer]
- Confidence: [HIGH/MEDIUM/LOW]
- Assumptions: [If any]

## AVAILABLE TOOLS

{tool_descriptions}

## RULES

1. Show your reasoning clearly but concisely
2. Always assess confidence
3. Validate tool results
4. Note assumptions or limitations

Be clear, accurate, and efficient.
`

// reactPrompt is the plain system prompt used by the simple loop variant.
const reactPrompt = `You are a helpful AI assistant with access to tools.
Follow the ReAct framework:

1. Think about what you need to do
2. Use tools if needed to gather information
3. Provide a clear, helpful answer

Available tools:
- pink_floyd_database: Query Pink Floyd songs by mood, album, lyrics, or year
- currency_price_checker: Get real-time currency exchange rates

Be concise and explain your reasoning.`

// Complexity grades how much reasoning depth a query calls for.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

var highComplexityKeywords = []string{
	"compare", "analyze", "explain why", "what if",
	"evaluate", "assess", "multiple", "complex",
}

var lowComplexityKeywords = []string{"find", "list", "what is", "show", "get"}

// AssessComplexity grades a query with keyword and length heuristics.
// Long queries or analytical keywords push it high; short lookup-style
// queries fall to low; everything else is medium.
func AssessComplexity(query string) Complexity {
	q := strings.ToLower(query)
	words := len(strings.Fields(query))

	if words > 20 {
		return ComplexityHigh
	}
	for _, kw := range highComplexityKeywords {
		if strings.Contains(q, kw) {
			return ComplexityHigh
		}
	}

	if words < 10 {
		for _, kw := range lowComplexityKeywords {
			if strings.Contains(q, kw) {
				return ComplexityLow
			}
		}
	}

	return ComplexityMedium
}

// PromptRegistry resolves named system prompt templates and memoizes
// rendered prompts keyed by template name and tool count.
type PromptRegistry struct {
	mu        sync.Mutex
	templates map[string]string
	rendered  map[string]string
}

// NewPromptRegistry creates a registry with the built-in templates.
func NewPromptRegistry() *PromptRegistry {
	return &PromptRegistry{
		templates: map[string]string{
			TemplateStandard: standardPrompt,
			TemplateVerbose:  verbosePrompt,
			TemplateConcise:  concisePrompt,
			TemplateDefault:  standardPrompt,
		},
		rendered: make(map[string]string),
	}
}

// Register adds or replaces a named template and drops its cached renders.
func (r *PromptRegistry) Register(name, template string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[name] = template
	for key := range r.rendered {
		if strings.HasPrefix(key, name+"_") {
			delete(r.rendered, key)
		}
	}
}

// Names returns the registered template names in sorted order.
func (r *PromptRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render formats the named template with descriptions of the given tools.
func (r *PromptRegistry) Render(name string, tools []provider.Tool) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s_%d", name, len(tools))
	if prompt, ok := r.rendered[key]; ok {
		return prompt, nil
	}

	tmpl, ok := r.templates[name]
	if !ok {
		names := make([]string, 0, len(r.templates))
		for n := range r.templates {
			names = append(names, n)
		}
		sort.Strings(names)
		return "", fmt.Errorf("template %q not found, available: %s", name, strings.Join(names, ", "))
	}

	prompt := strings.ReplaceAll(tmpl, toolSlot, DescribeTools(tools))
	r.rendered[key] = prompt
	return prompt, nil
}

// RenderAdaptive picks a template by query complexity and renders it.
// High complexity maps to verbose, low to concise, medium to standard.
func (r *PromptRegistry) RenderAdaptive(query string, tools []provider.Tool) string {
	name := TemplateStandard
	switch AssessComplexity(query) {
	case ComplexityHigh:
		name = TemplateVerbose
	case ComplexityLow:
		name = TemplateConcise
	}
	prompt, _ := r.Render(name, tools)
	return prompt
}
