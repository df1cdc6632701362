package auth

// Session - явный объект идентичности запроса. Заполняется middleware
// после проверки Firebase ID-токена и передается дальше через контекст
// запроса; никакого process-wide хранилища идентичности нет.
type Session struct {
	UID         string
	IsAnonymous bool
	DisplayName string
}

// Authenticated reports whether the session identifies a signed-in,
// non-anonymous principal.
func (s *Session) Authenticated() bool {
	return s != nil && s.UID != "" && !s.IsAnonymous
}

// ContextKey - ключ, под которым Session лежит в контексте gin.
const ContextKey = "auth_session"
