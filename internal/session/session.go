package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const CookieName = "purchasing_session"

// Flash одноразовое сообщение для следующей страницы
type Flash struct {
	Message string `json:"m"`
	Class   string `json:"c"`
}

// Session состояние браузера в подписанной куке.
// Email и BusinessName только подставляются в формы и ничего не подтверждают
type Session struct {
	UserID       int     `json:"uid,omitempty"`
	Email        string  `json:"email,omitempty"`
	BusinessName string  `json:"business_name,omitempty"`
	CSRF         string  `json:"csrf"`
	Flashes      []Flash `json:"flashes,omitempty"`
}

// New пустая сессия с новым CSRF токеном
func New() *Session {
	return &Session{CSRF: uuid.NewString()}
}

func (s *Session) AddFlash(message, class string) {
	s.Flashes = append(s.Flashes, Flash{Message: message, Class: class})
}

// PopFlashes возвращает и очищает очередь сообщений
func (s *Session) PopFlashes() []Flash {
	f := s.Flashes
	s.Flashes = nil
	return f
}

type claims struct {
	jwt.RegisteredClaims
	Session
}

// Manager подписывает и проверяет куки сессии (HS256)
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}
}

func (m *Manager) Encode(s *Session) (string, error) {
	if len(m.secret) == 0 {
		return "", errors.New("session: empty secret")
	}
	now := m.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Session: *s,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

// Decode проверяет подпись и срок действия токена
func (m *Manager) Decode(token string) (*Session, error) {
	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("session: invalid token")
	}
	s := c.Session
	return &s, nil
}

// Load читает куку сессии. Без куки или с невалидной кукой возвращает новую сессию
func (m *Manager) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return New()
	}
	s, err := m.Decode(cookie.Value)
	if err != nil {
		return New()
	}
	if s.CSRF == "" {
		s.CSRF = uuid.NewString()
	}
	return s
}

// Save пишет s в куку, вызывать до записи тела ответа
func (m *Manager) Save(w http.ResponseWriter, s *Session) error {
	token, err := m.Encode(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, m.Cookie(token))
	return nil
}

func (m *Manager) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
