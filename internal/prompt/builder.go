package prompt

import (
	"fmt"
	"sort"
	"strings"

	"memoir-server/internal/catalog"
	"memoir-server/internal/models"
)

// StyleDirective - фиксированная стилистическая установка. Используется
// одновременно как system-сообщение и как шапка задания в user-части.
const StyleDirective = `당신은 따뜻하고 개인적이며 문학적인 문체로 자서전을 써 주는 전문 작가입니다. 독자가 주인공의 삶을 가까이에서 들여다보는 듯한, 진솔하고 감성적인 글을 씁니다. 과장하지 않고, 주어진 답변 속의 구체적인 기억과 감정을 살려 씁니다.`

const previewTaskDirective = `아래 질문과 답변을 바탕으로 자서전의 미리보기를 작성해 주세요.
- 정확히 2개의 장(챕터)으로 구성합니다.
- 각 장은 장 제목과 본문으로 이루어집니다.
- 답변에 담긴 구체적인 기억을 중심으로 서술합니다.`

const fullTaskDirective = `아래 질문과 답변을 바탕으로 완성된 자서전을 작성해 주세요.
- 정확히 10개의 장(챕터)으로 구성합니다.
- 각 장은 장 제목과 본문으로 이루어집니다.
- 인생의 흐름이 느껴지도록 시간 순서에 따라 서술합니다.`

// Request - результат сборки: пара строк, готовых для Generation Client.
type Request struct {
	SystemPrompt string
	UserPrompt   string
}

// Build собирает промпт из набора ответов. Пары "질문/답변" идут в порядке
// каталога для известных вопросов, остальные ключи - в лексикографическом
// порядке: итерация по map в Go недетерминирована, а промпт должен быть
// воспроизводимым для кеширования.
func Build(answers models.AnswerSet, mode models.GenerationMode) Request {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		oi, oj := catalog.Order(keys[i]), catalog.Order(keys[j])
		switch {
		case oi >= 0 && oj >= 0:
			return oi < oj
		case oi >= 0:
			return true
		case oj >= 0:
			return false
		default:
			return keys[i] < keys[j]
		}
	})

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("질문: %s\n답변: %s", k, answers[k]))
	}

	task := previewTaskDirective
	if mode == models.ModeFull {
		task = fullTaskDirective
	}

	var sb strings.Builder
	sb.WriteString(StyleDirective)
	sb.WriteString("\n\n")
	sb.WriteString(task)
	if len(pairs) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(strings.Join(pairs, "\n\n"))
	}

	return Request{
		SystemPrompt: StyleDirective,
		UserPrompt:   sb.String(),
	}
}
