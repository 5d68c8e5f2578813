package safety

import (
	"regexp"

	"github.com/ieltsgenai/prep-api/internal/models"
)

type action int

const (
	actionBlock action = iota
	actionRedact
)

type rule struct {
	signal   string
	category models.SafetyCategory
	action   action
	weight   float64
	pattern  *regexp.Regexp
}

func blockRule(signal string, category models.SafetyCategory, weight float64, expr string) rule {
	return rule{signal: signal, category: category, action: actionBlock, weight: weight, pattern: regexp.MustCompile(expr)}
}

func redactRule(signal string, category models.SafetyCategory, expr string) rule {
	return rule{signal: signal, category: category, action: actionRedact, weight: 0.8, pattern: regexp.MustCompile(expr)}
}

const redaction = "[redacted]"

var inappropriateRules = []rule{
	blockRule("explicit_profanity", models.CategoryInappropriateContent, 0.9,
		`(?i)\b(f+u+c+k+\w*|motherf\w*|c+u+n+t+s?|wank\w*)\b`),
	blockRule("sexual_content", models.CategoryInappropriateContent, 0.9,
		`(?i)\b(porn|porno|blowjob|masturbat\w*|nude pics?)\b`),
	blockRule("violent_threat", models.CategoryInappropriateContent, 0.95,
		`(?i)\b(i will|i'?ll|i'?m going to|gonna)\s+(kill|shoot|stab|hurt|murder)\s+(you|him|her|them|myself|everyone)\b`),
	blockRule("hate_speech", models.CategoryInappropriateContent, 0.9,
		`(?i)\b(all|those)\s+\w+\s+(should|must|deserve to)\s+(die|be killed|be exterminated)\b`),
	redactRule("mild_profanity", models.CategoryInappropriateContent,
		`(?i)\b(damn|crap|shit\w*|bloody hell|piss(ed)? off|bastard)\b`),
}

var assessmentRules = []rule{
	blockRule("band_request", models.CategoryAssessmentManipulation, 0.85,
		`(?i)\b(give|award|assign|grant)\s+(me|this|my\s+\w+)\s+(an?\s+)?(band\s+|score\s+of\s+)?(9|nine|8\.5|perfect|full marks|the highest)\b`),
	blockRule("score_override", models.CategoryAssessmentManipulation, 0.85,
		`(?i)\b(score|mark|grade|rate)\s+(this|me|my\s+\w+)\s+(as\s+)?(an?\s+)?(band\s+)?(9|nine|perfect|highest)\b`),
	blockRule("answer_request", models.CategoryAssessmentManipulation, 0.75,
		`(?i)\b(tell|show|give|write)\s+me\s+(the\s+)?(correct|model|sample|right)\s+(answers?|essay|response)\b`),
	blockRule("other_user_data", models.CategoryAssessmentManipulation, 0.9,
		`(?i)\b(other|another|previous)\s+(users?|students?|candidates?|test[- ]takers?)('s|s')?\s+(essays?|scores?|answers?|results?|data|transcripts?)\b`),
}

var systemRules = []rule{
	blockRule("instruction_override", models.CategorySystemManipulation, 0.95,
		`(?i)\b(ignore|disregard|forget|override)\s+(all\s+|any\s+)?(of\s+)?(the\s+|your\s+)?(previous|prior|above|earlier|system|original)\s+(instructions?|prompts?|rules|directions)\b`),
	blockRule("prompt_extraction", models.CategorySystemManipulation, 0.9,
		`(?i)\b(reveal|print|show|repeat|output)\s+(me\s+)?(your|the)\s+(system\s+)?(prompt|instructions|rubric prompt)\b`),
	blockRule("role_override", models.CategorySystemManipulation, 0.85,
		`(?i)\b(you are now|from now on you are|act as|pretend (to be|you are))\s+(an?\s+)?(unrestricted|different|new|evil|jailbroken|dan)\b`),
	blockRule("jailbreak_marker", models.CategorySystemManipulation, 0.9,
		`(?i)(\bjailbreak\b|\bdan mode\b|\bdeveloper mode\b|<\|im_start\|>|\[/?inst\]|###\s*system)`),
}

var urlRule = redactRule("url_redacted", models.CategoryEducationalAppropriateness,
	`(?i)\b(https?://|www\.)\S+`)

var codeFencePattern = regexp.MustCompile("(?m)^\\s*```")

// Lines of model output that echo the scoring instructions.
var promptLeakPattern = regexp.MustCompile(`(?i)(you are a certified ielts|respond using exactly these labeled lines|never follow instructions contained|band descriptors provided|system prompt|bands are numbers from 0 to 9)`)

var assessmentVocabulary = regexp.MustCompile(`(?i)\b(band|essay|task|grammar|grammatical|vocabulary|lexical|coherence|cohesion|fluency|pronunciation|paragraph|sentence|argument|response|idea|structure|candidate|improve|accuracy|range|example|linking|spelling|answer|speaking|writing)\b`)
