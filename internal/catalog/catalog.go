package catalog

import "memoir-server/internal/models"

// Каталог вопросов статичен: 2 вопроса для превью и 8 дополнительных
// для полной автобиографии. Конкатенация дает полный список из 10 пунктов.

var previewQuestions = []models.Question{
	{
		ID:          "childhood_memory",
		Text:        "어린 시절 가장 기억에 남는 순간은 무엇인가요?",
		Placeholder: "예: 할머니 댁에서 보낸 여름 방학...",
	},
	{
		ID:          "life_turning_point",
		Text:        "인생의 전환점이 된 사건은 무엇이었나요?",
		Placeholder: "예: 첫 직장을 그만두고 유학을 떠난 날...",
	},
}

var fullQuestions = []models.Question{
	{
		ID:          "family_story",
		Text:        "가족에 대해 들려주세요. 어떤 가정에서 자라셨나요?",
		Placeholder: "예: 부모님과 두 동생과 함께 작은 도시에서...",
	},
	{
		ID:          "school_days",
		Text:        "학창 시절은 어떠셨나요? 기억에 남는 선생님이나 친구가 있나요?",
		Placeholder: "예: 고등학교 때 문학 선생님께서...",
	},
	{
		ID:          "first_love",
		Text:        "첫사랑이나 소중했던 인연에 대해 이야기해 주세요.",
		Placeholder: "예: 대학교 도서관에서 처음 만난...",
	},
	{
		ID:          "career_journey",
		Text:        "어떤 일을 하며 살아오셨나요? 일에서 배운 것이 있다면요?",
		Placeholder: "예: 20년간 교사로 일하면서...",
	},
	{
		ID:          "biggest_challenge",
		Text:        "인생에서 가장 힘들었던 시기와 그것을 어떻게 극복했는지 들려주세요.",
		Placeholder: "예: 사업이 실패했을 때...",
	},
	{
		ID:          "proudest_moment",
		Text:        "가장 자랑스러웠던 순간은 언제인가요?",
		Placeholder: "예: 아이가 처음 걸음마를 떼던 날...",
	},
	{
		ID:          "life_philosophy",
		Text:        "살아오면서 얻은 인생의 교훈이나 철학이 있다면요?",
		Placeholder: "예: 느리더라도 꾸준히 가는 것이...",
	},
	{
		ID:          "message_to_future",
		Text:        "미래의 나, 혹은 다음 세대에게 남기고 싶은 말이 있나요?",
		Placeholder: "예: 후회 없이 사랑하고 도전하라고...",
	},
}

// Preview возвращает вопросы, доступные до пейволла.
func Preview() []models.Question {
	return clone(previewQuestions)
}

// Full возвращает дополнительные вопросы полной анкеты.
func Full() []models.Question {
	return clone(fullQuestions)
}

// All возвращает полный каталог: превью-вопросы, затем остальные.
func All() []models.Question {
	all := make([]models.Question, 0, len(previewQuestions)+len(fullQuestions))
	all = append(all, previewQuestions...)
	all = append(all, fullQuestions...)
	return all
}

// Order возвращает позицию вопроса в каталоге или -1, если вопрос неизвестен.
// Используется билдером промпта для детерминированного порядка пар вопрос/ответ.
func Order(id string) int {
	for i, q := range previewQuestions {
		if q.ID == id {
			return i
		}
	}
	for i, q := range fullQuestions {
		if q.ID == id {
			return len(previewQuestions) + i
		}
	}
	return -1
}

func clone(qs []models.Question) []models.Question {
	out := make([]models.Question, len(qs))
	copy(out, qs)
	return out
}
