package generator

import (
	"fmt"
	"strings"

	"github.com/modforge/modforge/internal/reuse"
	"github.com/modforge/modforge/internal/taxonomy"
	"github.com/modforge/modforge/internal/types"
)

const moduleGenerationPrompt = `You are an expert software architect tasked with breaking down a project into logical, well-defined modules.

Given the following project documentation:

<project_documentation>
%s
</project_documentation>

Analyze this documentation and generate a comprehensive list of modules that should be implemented. For each module, provide:

1. **name**: A clear, concise module name (e.g., "User Authentication", "Payment Processing")
2. **description**: Brief description of what this module does (2-3 sentences)
3. **scope**: Detailed scope of responsibilities and boundaries
4. **dependencies**: List any dependencies on other modules or external systems
5. **features**: Key features this module will provide (bullet points)
6. **requirements**: Functional and non-functional requirements
7. **technical_specs**: Technical specifications, tech stack recommendations, APIs, etc.

Requirements:
- Generate between 5-12 modules depending on project complexity
- Each module should be focused and have clear boundaries
- Modules should be logically organized (e.g., Frontend, Backend, Database, Infrastructure)
- Consider both functional modules (e.g., User Management) and cross-cutting concerns (e.g., Logging, Authentication)
- Make modules practical and implementable

Output Format:
Return ONLY a valid JSON array of module objects. Each object must have these exact keys:
- name (string)
- description (string)
- scope (string)
- dependencies (string)
- features (string)
- requirements (string)
- technical_specs (string)

Now generate modules for this project:`

// strictJSONReminder is appended on the retry after a parse failure.
const strictJSONReminder = `

IMPORTANT: Your previous response could not be parsed. Return ONLY the raw JSON array with no surrounding text, no markdown code fences, no trailing commas, and all string values on a single line with escaped newlines (\n).`

const tagGenerationPrompt = `You are an expert software architect analyzing module requirements to classify them into a 3-layer taxonomy following Single Responsibility Principle.

**CRITICAL RULES:**
1. **Each layer = EXACTLY ONE tag** (Single Responsibility)
2. **MUST choose from the provided taxonomy** (no free-form tags)
3. If a module does multiple things, it's poorly designed - choose the PRIMARY intent only
4. Provide detailed reasoning to explain your choice and mention secondary aspects

**3-Layer Classification System:**

**L1 - Intent (Functional Purpose):**
What is the PRIMARY function? Pick ONE from taxonomy.
TAXONOMY: %s

**L2 - Constraint (Primary Tech Stack):**
What is the MAIN technology? Pick ONE from taxonomy.
TAXONOMY: %s

**L3 - Context (Business Domain):**
What is the PRIMARY domain? Pick ONE from taxonomy.
TAXONOMY: %s

**Guidelines:**
- If unsure between multiple L1 tags, pick the one that represents the core responsibility
- For L2, pick the dominant/required technology (e.g., if both "nodejs" and "react", choose based on backend vs frontend focus)
- For L3, pick the most specific domain
- Use the reasoning field to explain why you chose this tag and what secondary aspects exist

**Module Information:**
Name: %s
Description: %s
Scope: %s
Features: %s
Requirements: %s
Technical Specs: %s

**Output Format:**
Return ONLY a valid JSON object (no markdown, no explanation):

{
  "L1_intent": {
    "tag": "chosen-tag-from-taxonomy",
    "confidence": 0.95,
    "reasoning": "Why this is the PRIMARY function. Secondary aspects: X, Y, Z"
  },
  "L2_constraint": {
    "tag": "chosen-tech-from-taxonomy",
    "confidence": 0.90,
    "reasoning": "Why this is the MAIN technology. Also uses: X, Y for specific purposes"
  },
  "L3_context": {
    "tag": "chosen-domain-from-taxonomy",
    "confidence": 0.85,
    "reasoning": "Why this is the PRIMARY domain. May also serve: X, Y"
  }
}

Now generate tags for the module above. Return ONLY the JSON object.`

const taskGenerationPrompt = `You are an expert agile project manager and senior software engineer tasked with breaking down a software module into specific, actionable tasks.

Your goal: create tasks that a junior developer or new team member can pick up and understand immediately. Each task should be a clear mini-project with enough context to work independently.

Given the following module information:

<module_name>%s</module_name>

<module_description>%s</module_description>

<module_scope>%s</module_scope>

<module_features>
%s
</module_features>

<module_requirements>
%s
</module_requirements>

<module_technical_specs>
%s
</module_technical_specs>

Analyze this module and generate a list of tasks. For each task, provide:

1. **name**: Clear, actionable task name with context, format "[Category] Action + What + Context"
   (e.g., "[Backend] Create user registration API with email validation")
2. **description**: Concise markdown description (80-120 words) with Objective, Acceptance
   Criteria and Key Steps sections. The description MUST be a single-line JSON string with
   escaped newlines (\n) and escaped double quotes (\").
3. **priority**: One of "low", "medium", "high"
   - high: blocking other tasks, core functionality, security-critical
   - medium: important but not blocking
   - low: nice-to-have, optimizations, polish
4. **difficulty**: Integer 1-5 (1 = trivial under 30min, 3 = needs understanding, 2-4 hours,
   5 = architectural design, 6-8 hours)
5. **time_estimate**: Realistic hours for a mid-level developer (number, e.g. 2.5)
6. **assignee**: Leave empty "" (assigned later)

Requirements:
- Generate 8-12 tasks per module (focused, actionable work)
- Logical ordering: Setup, Core, Features, Tests, Docs, Polish
- Prefer fewer well-scoped tasks over many tiny tasks
- Each task should be completable in 0.5-6 hours
- Be specific with file paths, function names and endpoints

Output Format:
Return ONLY a valid JSON array of task objects. Each object must have these exact keys:
- name (string)
- description (string, escaped newlines only)
- priority (string: "low" | "medium" | "high")
- difficulty (integer: 1-5)
- time_estimate (number)
- assignee (string: always "")

Never use literal line breaks inside JSON strings and never use triple backticks in descriptions.

Now generate tasks for this module. Be specific with file paths and APIs, but keep descriptions brief:`

func buildModuleGenerationPrompt(documentation string) string {
	return fmt.Sprintf(moduleGenerationPrompt, documentation)
}

func buildTagGenerationPrompt(module *types.Module, tax *taxonomy.Taxonomy) string {
	return fmt.Sprintf(tagGenerationPrompt,
		strings.Join(tax.Vocabulary(types.LayerIntent), ", "),
		strings.Join(tax.Vocabulary(types.LayerConstraint), ", "),
		strings.Join(tax.Vocabulary(types.LayerContext), ", "),
		orDefault(module.Name, "Unnamed"),
		orDefault(module.Description, "No description"),
		orDefault(module.Scope, "Not specified"),
		orDefault(module.Features, "Not specified"),
		orDefault(module.Requirements, "Not specified"),
		orDefault(module.TechnicalSpecs, "Not specified"),
	)
}

func buildTaskGenerationPrompt(module *types.Module) string {
	return fmt.Sprintf(taskGenerationPrompt,
		orDefault(module.Name, "Unnamed Module"),
		orDefault(module.Description, "No description provided"),
		orDefault(module.Scope, "Not specified"),
		orDefault(module.Features, "Not specified"),
		orDefault(module.Requirements, "Not specified"),
		orDefault(module.TechnicalSpecs, "Not specified"),
	)
}

// requirementsDocLimit caps how much of the requirements document goes into a
// reuse prompt.
const requirementsDocLimit = 2000

// buildReuseGuidancePrompt builds the strategy-specific adaptation prompt from
// a layer-quality decision: what to keep, what to adapt, what to build new.
func buildReuseGuidancePrompt(source *types.Module, decision reuse.QualityDecision, requirements string) string {
	l1 := decision.LayerAnalysis[types.LayerIntent]
	l2 := decision.LayerAnalysis[types.LayerConstraint]
	l3 := decision.LayerAnalysis[types.LayerContext]

	if len(requirements) > requirementsDocLimit {
		requirements = requirements[:requirementsDocLimit]
	}

	var b strings.Builder
	switch decision.Strategy {
	case types.StrategyDirect:
		fmt.Fprintf(&b, `You are adapting an existing module for new requirements.

**SOURCE MODULE**: %s
%s

**MATCH ANALYSIS**:
- Intent Match: %.0f%% (Strong)
- Tech Match: %.0f%% (Strong)
- Overall Confidence: %.0f%%

**STRATEGY**: DIRECT REUSE with Minor Customization

**WHAT TO KEEP**:
- Core architecture and structure
- Business logic and workflows
- Tech stack: %s
- Features: %s

**WHAT TO CUSTOMIZE**:
%s

**NEW REQUIREMENTS**:
%s

Generate the adapted module with same structure but customized details.
`,
			source.Name, source.Description,
			l1.Score*100, l2.Score*100, decision.Confidence*100,
			strings.Join(l2.MatchedTags, ", "), strings.Join(l1.MatchedTags, ", "),
			bulletList(decision.RecommendedActions), requirements)

	case types.StrategyPartialReuse:
		fmt.Fprintf(&b, `You are adapting a module with significant changes.

**SOURCE MODULE**: %s
Features: %s

**MATCH ANALYSIS**:
- Intent Match: %.0f%%
- Tech Match: %.0f%%%s
- Domain Match: %.0f%%%s

**STRATEGY**: PARTIAL REUSE - Adapt Architecture

**WARNINGS**:
%s

**KEEP (Architecture & Logic)**:
- Functional workflows: %s
- Business processes and state machines
- Data models and relationships

**ADAPT (Implementation)**:
%s

**NEW REQUIREMENTS**:
%s

Generate NEW module that:
1. Reuses proven architecture/workflows from source
2. Implements in target tech stack: %s
3. Adapts for target domain: %s
`,
			source.Name, truncateField(source.Features, 500),
			l1.Score*100,
			l2.Score*100, mismatchMarker(l2.IsStrong),
			l3.Score*100, mismatchMarker(l3.IsAcceptable),
			bulletList(decision.Warnings),
			strings.Join(l1.MatchedTags, ", "),
			bulletList(decision.RecommendedActions), requirements,
			strings.Join(l2.MissingTags, ", "), strings.Join(l3.MissingTags, ", "))

	case types.StrategyPatternCombination:
		fmt.Fprintf(&b, `You are synthesizing a module from multiple partial matches.

**REFERENCE MODULE**: %s

**MATCH ANALYSIS**:
- Intent Match: %.0f%% (Partial - some features match)
- Matched Intent: %s
- Missing Intent: %s

**STRATEGY**: PATTERN COMBINATION

**EXTRACT FROM REFERENCE**:
- Patterns for: %s
- Architecture concepts
- Best practices

**BUILD NEW**:
%s

**NEW REQUIREMENTS**:
%s

Generate module that combines:
1. Proven patterns from reference (where applicable)
2. New implementation for missing functionality
3. Cohesive solution meeting all requirements
`,
			source.Name,
			l1.Score*100,
			strings.Join(l1.MatchedTags, ", "), strings.Join(l1.MissingTags, ", "),
			strings.Join(l1.MatchedTags, ", "),
			bulletList(decision.RecommendedActions), requirements)

	default: // new_gen
		fmt.Fprintf(&b, `Generate a NEW module from scratch (low match with existing).

**REFERENCE** (for inspiration only): %s

**MATCH ANALYSIS**:
- Intent Match: %.0f%% (Low - different functionality)
- Can learn from: %s

**STRATEGY**: NEW GENERATION

**CRITICAL**:
%s

**SUGGESTED GUIDANCE**:
%s

**REQUIREMENTS** (PRIMARY SOURCE):
%s

Generate module primarily from requirements. Only reference existing module for:
- General tech patterns if applicable
- Code style and structure conventions
`,
			source.Name,
			l1.Score*100,
			strings.Join(append(append([]string{}, l2.MatchedTags...), l3.MatchedTags...), ", "),
			bulletList(decision.Warnings),
			bulletList(decision.RecommendedActions), requirements)
	}

	b.WriteString(`
Return ONLY a valid JSON object with these exact keys:
- name (string)
- description (string)
- scope (string)
- dependencies (string)
- features (string)
- requirements (string)
- technical_specs (string)`)
	return b.String()
}

// buildSynthesisPrompt builds the multi-source pattern combination prompt.
func buildSynthesisPrompt(sources []reuse.Match, requirements string) string {
	if len(requirements) > requirementsDocLimit {
		requirements = requirements[:requirementsDocLimit]
	}

	var b strings.Builder
	b.WriteString("You are synthesizing a new module from several partially matching modules.\n\n**SOURCE MODULES**:\n")
	for i, match := range sources {
		fmt.Fprintf(&b, "\n%d. %s (match: %.0f%%)\n", i+1, match.Module.Name, match.Similarity.WeightedScore*100)
		if match.Module.Description != "" {
			fmt.Fprintf(&b, "   %s\n", match.Module.Description)
		}
		if match.Module.Features != "" {
			fmt.Fprintf(&b, "   Features: %s\n", truncateField(match.Module.Features, 300))
		}
	}
	fmt.Fprintf(&b, `
**STRATEGY**: PATTERN COMBINATION across %d sources

**NEW REQUIREMENTS**:
%s

Extract the proven patterns each source contributes, combine them into one
cohesive module meeting all requirements, and fill the gaps with new design.

Return ONLY a valid JSON object with these exact keys:
- name (string)
- description (string)
- scope (string)
- dependencies (string)
- features (string)
- requirements (string)
- technical_specs (string)`, len(sources), requirements)
	return b.String()
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "- (none)"
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

func mismatchMarker(ok bool) string {
	if ok {
		return ""
	}
	return " (MISMATCH)"
}

func truncateField(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
