package coachservice

/* =================================================================================
						PROMPT ENGINEERING & FIXED TEXT
=================================================================================*/

// DefaultPersona is used whenever the persona file cannot be read.
const DefaultPersona = "당신은 전문 헬스 트레이너입니다."

// EmptyReplyPlaceholder is returned when the model produced nothing usable.
const EmptyReplyPlaceholder = "AI가 답변을 생성하지 못했습니다."

// Section headers of the user turn.
const (
	ContextHeader  = "[과거 운동 기록]"
	QuestionHeader = "[질문]"
)

// CatalogHeader is the first line of the rendered exercise catalog.
const CatalogHeader = "[Exercise catalog by muscle group]"

/*
MuscleMappingGuide tells the model how Korean body-part words used by members map
onto the English muscle identifiers the catalog is grouped by.
*/
const MuscleMappingGuide = `[근육 부위 매핑 가이드 / Muscle group mapping guide]
회원이 한국어로 부위를 말하면 아래 영어 근육 이름으로 카탈로그를 찾으세요.
- 가슴 → chest
- 등 → lats, middle back, lower back
- 광배 → lats
- 승모 → traps
- 어깨 → shoulders
- 이두 → biceps
- 삼두 → triceps
- 팔 → biceps, triceps, forearms
- 전완 → forearms
- 복근, 코어 → abdominals
- 하체 → quadriceps, hamstrings, glutes, calves
- 허벅지 앞 → quadriceps
- 허벅지 뒤 → hamstrings
- 엉덩이, 둔근 → glutes
- 종아리 → calves
- 내전근 → adductors
- 외전근 → abductors
- 목 → neck
카탈로그에 있는 운동 이름을 그대로 사용해 추천하세요.`

/*
OutputFormatInstruction asks for the structured reply the normalizer understands.
Groq's JSON mode rejects prompts that never mention JSON, so this is appended to
the system text whenever structured output is requested.
*/
const OutputFormatInstruction = `[Response format]
Reply with a single JSON object and nothing else:
{"response": "<your answer to the member, in Korean>", "routine": <object or null>}
Set "routine" to a day-by-day plan object (for example {"day1": ["Barbell Squat 4x8"]}) only
when the member asks for a workout routine; otherwise set it to null.`
